package cmd

import (
	"log/slog"

	"github.com/Aman-CERP/docsift/internal/config"
	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/scanner"
	"github.com/Aman-CERP/docsift/internal/search"
	"github.com/Aman-CERP/docsift/internal/store"
)

// app holds the components every command shares for one document root.
type app struct {
	cfg     *config.Config
	store   store.ContentStore
	indexer *index.Indexer
	engine  *search.Engine
	logger  *slog.Logger
}

// loadConfig loads the layered configuration for root.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, siftErrors.ConfigError("failed to load configuration", err).
			WithSuggestion("check .docsift.yaml or run 'docsift config show'")
	}
	return cfg, nil
}

// openApp opens the configured store and wires the indexer and the search
// engine around it. A completed reindex drops cached search responses.
func openApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.Store.Backend, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	sc := scanner.New(logger)
	ix, err := index.NewIndexer(index.Dependencies{
		Config:  cfg,
		Store:   st,
		Scanner: sc,
		Logger:  logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	engine, err := search.NewEngine(search.ConfigFrom(cfg, ix.Extensions()), st,
		search.WithLogger(logger),
		search.WithScanner(sc))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	ix.OnComplete(func(*index.Report) { engine.Invalidate() })

	return &app{
		cfg:     cfg,
		store:   st,
		indexer: ix,
		engine:  engine,
		logger:  logger,
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}
