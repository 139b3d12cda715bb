// Package config holds the explicit configuration object that every docsift
// component receives at construction time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-root configuration file.
const ProjectFileName = ".docsift.yaml"

// DataDirName is the directory under the root that holds store files.
const DataDirName = ".docsift"

// Config is the complete docsift configuration.
type Config struct {
	Version int    `yaml:"version" json:"version"`
	Root    string `yaml:"root,omitempty" json:"root,omitempty"`
	DataDir string `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`

	Paths  PathsConfig  `yaml:"paths" json:"paths"`
	Search SearchConfig `yaml:"search" json:"search"`
	Index  IndexConfig  `yaml:"index" json:"index"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Watch  WatchConfig  `yaml:"watch" json:"watch"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// PathsConfig controls which files the walker visits.
type PathsConfig struct {
	Exclude        []string `yaml:"exclude" json:"exclude"`
	IncludeHidden  bool     `yaml:"include_hidden" json:"include_hidden"`
	FollowSymlinks bool     `yaml:"follow_symlinks" json:"follow_symlinks"` // files only; linked directories are not entered
	MaxFileSizeMB  int      `yaml:"max_file_size_mb" json:"max_file_size_mb"`
}

// SearchConfig tunes query handling.
type SearchConfig struct {
	DefaultLimit   int    `yaml:"default_limit" json:"default_limit"`
	MaxLimit       int    `yaml:"max_limit" json:"max_limit"`
	MinQueryLength int    `yaml:"min_query_length" json:"min_query_length"`
	SnippetRadius  int    `yaml:"snippet_radius" json:"snippet_radius"`
	CacheSize      int    `yaml:"cache_size" json:"cache_size"`
	CacheTTL       string `yaml:"cache_ttl" json:"cache_ttl"`
}

// IndexConfig tunes reindex runs.
type IndexConfig struct {
	Workers     int    `yaml:"workers" json:"workers"`
	LockTimeout string `yaml:"lock_timeout" json:"lock_timeout"`
}

// StoreConfig selects the ContentStore backend.
type StoreConfig struct {
	// Backend is one of "sqlite" (default), "bleve", "badger" or "memory".
	Backend string `yaml:"backend" json:"backend"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig returns the built-in defaults. Root and DataDir stay empty until
// Load or Resolve fills them.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Exclude:        []string{".git", "node_modules", DataDirName},
			FollowSymlinks: true,
			MaxFileSizeMB:  100,
		},
		Search: SearchConfig{
			DefaultLimit:   50,
			MaxLimit:       1000,
			MinQueryLength: 2,
			SnippetRadius:  100,
			CacheSize:      256,
			CacheTTL:       "5s",
		},
		Index: IndexConfig{
			Workers:     runtime.NumCPU(),
			LockTimeout: "10s",
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// GetUserConfigPath returns the user configuration file:
//   - $XDG_CONFIG_HOME/docsift/config.yaml when XDG_CONFIG_HOME is set
//   - ~/.config/docsift/config.yaml otherwise
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docsift", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docsift", "config.yaml")
	}
	return filepath.Join(home, ".config", "docsift", "config.yaml")
}

// Load builds the configuration for the document root dir.
// Precedence, lowest first:
//  1. Built-in defaults
//  2. User config (~/.config/docsift/config.yaml)
//  3. Project config (<dir>/.docsift.yaml or .docsift.yml)
//  4. DOCSIFT_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if cfg.Root == "" {
		cfg.Root = dir
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Resolve makes Root absolute and derives DataDir from it when unset.
func (c *Config) Resolve() error {
	if c.Root == "" {
		return fmt.Errorf("root is required")
	}
	abs, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", c.Root, err)
	}
	c.Root = abs

	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.Root, DataDirName)
	} else if !filepath.IsAbs(c.DataDir) {
		c.DataDir = filepath.Join(c.Root, c.DataDir)
	}
	return nil
}

// loadFromDir loads .docsift.yaml, falling back to .docsift.yml.
func (c *Config) loadFromDir(dir string) error {
	for _, name := range []string{ProjectFileName, ".docsift.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML merges the non-zero values of a YAML file into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// cache_size 0 disables the cache, so an absent key is marked with -1.
	// follow_symlinks defaults to true, so an absent key keeps the current value.
	parsed := Config{
		Paths:  PathsConfig{FollowSymlinks: c.Paths.FollowSymlinks},
		Search: SearchConfig{CacheSize: -1},
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies non-zero values from other into c. FollowSymlinks is
// always copied; loadYAML seeds it from c.
// Exclude patterns are appended to the defaults rather than replacing them.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Root != "" {
		c.Root = other.Root
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = appendUnique(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if other.Paths.IncludeHidden {
		c.Paths.IncludeHidden = true
	}
	c.Paths.FollowSymlinks = other.Paths.FollowSymlinks
	if other.Paths.MaxFileSizeMB != 0 {
		c.Paths.MaxFileSizeMB = other.Paths.MaxFileSizeMB
	}

	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.MaxLimit != 0 {
		c.Search.MaxLimit = other.Search.MaxLimit
	}
	if other.Search.MinQueryLength != 0 {
		c.Search.MinQueryLength = other.Search.MinQueryLength
	}
	if other.Search.SnippetRadius != 0 {
		c.Search.SnippetRadius = other.Search.SnippetRadius
	}
	if other.Search.CacheSize >= 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}
	if other.Search.CacheTTL != "" {
		c.Search.CacheTTL = other.Search.CacheTTL
	}

	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.LockTimeout != "" {
		c.Index.LockTimeout = other.Index.LockTimeout
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies DOCSIFT_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCSIFT_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("DOCSIFT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("DOCSIFT_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("DOCSIFT_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("DOCSIFT_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("DOCSIFT_FOLLOW_SYMLINKS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Paths.FollowSymlinks = b
		}
	}
	if v := os.Getenv("DOCSIFT_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("DOCSIFT_SEARCH_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.DefaultLimit = n
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit (%d) must be >= search.default_limit (%d)", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("search.min_query_length must be at least 1, got %d", c.Search.MinQueryLength)
	}
	if c.Search.SnippetRadius < 0 {
		return fmt.Errorf("search.snippet_radius must be non-negative, got %d", c.Search.SnippetRadius)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be at least 1, got %d", c.Index.Workers)
	}
	if c.Paths.MaxFileSizeMB < 0 {
		return fmt.Errorf("paths.max_file_size_mb must be non-negative, got %d", c.Paths.MaxFileSizeMB)
	}

	for name, v := range map[string]string{
		"search.cache_ttl":   c.Search.CacheTTL,
		"index.lock_timeout": c.Index.LockTimeout,
		"watch.debounce":     c.Watch.Debounce,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}

	validBackends := map[string]bool{"sqlite": true, "bleve": true, "badger": true, "memory": true}
	if !validBackends[strings.ToLower(c.Store.Backend)] {
		return fmt.Errorf("store.backend must be 'sqlite', 'bleve', 'badger' or 'memory', got %s", c.Store.Backend)
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// CacheTTLDuration returns the parsed search cache TTL.
func (c *Config) CacheTTLDuration() time.Duration {
	return mustDuration(c.Search.CacheTTL)
}

// LockTimeoutDuration returns the parsed index lock timeout.
func (c *Config) LockTimeoutDuration() time.Duration {
	return mustDuration(c.Index.LockTimeout)
}

// DebounceDuration returns the parsed watch debounce.
func (c *Config) DebounceDuration() time.Duration {
	return mustDuration(c.Watch.Debounce)
}

// MaxFileSize returns the per-file byte limit, 0 meaning unlimited.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Paths.MaxFileSizeMB) * 1024 * 1024
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// mustDuration parses values already checked by Validate.
func mustDuration(v string) time.Duration {
	d, _ := time.ParseDuration(v)
	return d
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
