package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/scanner"
	"github.com/Aman-CERP/docsift/internal/store"
)

// Engine runs the filename and content phases and merges their results.
// It only reads the store.
type Engine struct {
	cfg     Config
	store   store.ContentStore
	scanner *scanner.Scanner
	logger  *slog.Logger
	cache   *expirable.LRU[string, *Response]
}

var _ Searcher = (*Engine)(nil)

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScanner overrides the walker used by the filename phase.
func WithScanner(s *scanner.Scanner) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.scanner = s
		}
	}
}

// NewEngine creates a search engine over st.
func NewEngine(cfg Config, st store.ContentStore, opts ...EngineOption) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("search root is required")
	}

	e := &Engine{
		cfg:    cfg.withDefaults(),
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scanner == nil {
		e.scanner = scanner.New(e.logger)
	}
	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		e.cache = expirable.NewLRU[string, *Response](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return e, nil
}

// Search finds documents whose name or indexed text contains query,
// ignoring case. A query shorter than the minimum length after trimming
// returns no results without touching the filesystem or the store.
// limit <= 0 selects the default limit. Only storage and walk failures
// return an error.
func (e *Engine) Search(ctx context.Context, query string, limit int) (*Response, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < e.cfg.MinQueryLength {
		return emptyResponse(), nil
	}
	limit = e.cfg.clampLimit(limit)

	key := fmt.Sprintf("%d\x00%s", limit, store.Fold(q))
	if e.cache != nil {
		if resp, ok := e.cache.Get(key); ok {
			e.logger.Debug("search_cache_hit", slog.String("query", q))
			return resp, nil
		}
	}

	start := time.Now()
	var byName []*scanner.FileInfo
	var byContent []*store.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byName, err = e.filenamePhase(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		byContent, err = e.store.FindContaining(gctx, q, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		if siftErrors.IsStorageFailure(err) {
			e.logger.Error("search_store_failed", siftErrors.LogAttrs(err)...)
		}
		return nil, err
	}

	resp := e.merge(q, byName, byContent, limit)
	if e.cache != nil {
		e.cache.Add(key, resp)
	}

	e.logger.Debug("search_complete",
		slog.String("query", q),
		slog.Int("filename_matches", len(byName)),
		slog.Int("content_matches", len(byContent)),
		slog.Int("total", resp.Total),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}

// Invalidate drops cached responses. The indexer calls it after a run.
func (e *Engine) Invalidate() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// filenamePhase walks the root for supported files whose display name
// contains q.
func (e *Engine) filenamePhase(ctx context.Context, q string) ([]*scanner.FileInfo, error) {
	files, err := e.scanner.List(ctx, &scanner.ScanOptions{
		Root:            e.cfg.Root,
		Extensions:      e.cfg.Extensions,
		ExcludePatterns: e.cfg.ExcludePatterns,
		IncludeHidden:   e.cfg.IncludeHidden,
		FollowSymlinks:  e.cfg.FollowSymlinks,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, siftErrors.New(siftErrors.ErrCodeSearchFailed, "filename search", err).
			WithDetail("root", e.cfg.Root)
	}

	folded := store.Fold(q)
	var matched []*scanner.FileInfo
	for _, f := range files {
		if strings.Contains(store.Fold(f.Name), folded) {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// merge applies the content phase on top of the filename phase, then
// truncates to limit.
func (e *Engine) merge(q string, byName []*scanner.FileInfo, byContent []*store.Document, limit int) *Response {
	results := make([]*Result, 0, len(byName)+len(byContent))
	index := make(map[string]*Result, len(byName))

	for _, f := range byName {
		r := &Result{Path: f.Path, Name: f.Name, MatchType: MatchFilename}
		results = append(results, r)
		index[f.Path] = r
	}

	for _, doc := range byContent {
		snippet, ok := Snippet(doc.Content, q, e.cfg.SnippetRadius)
		if !ok {
			continue
		}
		if r, found := index[doc.Path]; found {
			r.Snippet = snippet
			r.MatchType = MatchBoth
			continue
		}
		r := &Result{Path: doc.Path, Name: doc.Name, Snippet: snippet, MatchType: MatchContent}
		results = append(results, r)
		index[doc.Path] = r
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return &Response{Results: results, Total: len(results)}
}
