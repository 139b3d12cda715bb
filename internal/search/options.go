package search

import (
	"time"

	"github.com/Aman-CERP/docsift/internal/config"
)

// Config holds the engine settings derived from config.Config.
type Config struct {
	Root            string
	Extensions      []string
	ExcludePatterns []string
	IncludeHidden   bool
	FollowSymlinks  bool

	DefaultLimit   int
	MaxLimit       int
	MinQueryLength int
	SnippetRadius  int

	CacheSize int
	CacheTTL  time.Duration
}

// ConfigFrom builds an engine Config. extensions are the ones the
// indexer can extract, so both phases cover the same file set.
func ConfigFrom(cfg *config.Config, extensions []string) Config {
	return Config{
		Root:            cfg.Root,
		Extensions:      extensions,
		ExcludePatterns: cfg.Paths.Exclude,
		IncludeHidden:   cfg.Paths.IncludeHidden,
		FollowSymlinks:  cfg.Paths.FollowSymlinks,
		DefaultLimit:    cfg.Search.DefaultLimit,
		MaxLimit:        cfg.Search.MaxLimit,
		MinQueryLength:  cfg.Search.MinQueryLength,
		SnippetRadius:   cfg.Search.SnippetRadius,
		CacheSize:       cfg.Search.CacheSize,
		CacheTTL:        cfg.CacheTTLDuration(),
	}
}

// withDefaults fills zero values with the built-in defaults.
func (c Config) withDefaults() Config {
	defaults := config.NewConfig().Search
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaults.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = defaults.MaxLimit
	}
	if c.MaxLimit < c.DefaultLimit {
		c.MaxLimit = c.DefaultLimit
	}
	if c.MinQueryLength <= 0 {
		c.MinQueryLength = defaults.MinQueryLength
	}
	if c.SnippetRadius <= 0 {
		c.SnippetRadius = defaults.SnippetRadius
	}
	return c
}

// clampLimit maps 0 or negative to the default and caps at MaxLimit.
func (c Config) clampLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultLimit
	}
	return min(limit, c.MaxLimit)
}
