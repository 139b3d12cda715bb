package watcher

import (
	"context"
	"log/slog"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/index"
)

// Reindexer is the part of index.Indexer the watcher drives.
type Reindexer interface {
	Reindex(ctx context.Context) (*index.Report, error)
}

// AutoReindexer runs one full reindex per debounced batch.
type AutoReindexer struct {
	watcher   Watcher
	reindexer Reindexer
	logger    *slog.Logger
}

// NewAutoReindexer wires a watcher to a reindexer.
func NewAutoReindexer(w Watcher, r Reindexer, logger *slog.Logger) *AutoReindexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoReindexer{watcher: w, reindexer: r, logger: logger}
}

// Run consumes batches until the watcher stops or ctx is done. A storage
// failure ends the loop; other reindex errors, such as a lock held by
// another process, are logged and the next batch retries.
func (a *AutoReindexer) Run(ctx context.Context) error {
	events := a.watcher.Events()
	errs := a.watcher.Errors()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Warn("watch_error", slog.String("error", err.Error()))

		case batch, ok := <-events:
			if !ok {
				return nil
			}
			if err := a.handle(ctx, batch); err != nil {
				return err
			}
		}
	}
}

func (a *AutoReindexer) handle(ctx context.Context, batch []FileEvent) error {
	configChanged := false
	for _, ev := range batch {
		if ev.Operation == OpConfigChange {
			configChanged = true
		}
	}
	if configChanged {
		a.logger.Warn("watch_config_changed",
			slog.String("hint", "restart to apply changed settings"))
	}

	a.logger.Info("watch_reindex",
		slog.Int("changes", len(batch)),
		slog.String("first", batch[0].Path))

	report, err := a.reindexer.Reindex(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if siftErrors.IsStorageFailure(err) {
			a.logger.Error("watch_reindex_failed", siftErrors.LogAttrs(err)...)
			return err
		}
		a.logger.Warn("watch_reindex_failed", siftErrors.LogAttrs(err)...)
		return nil
	}

	a.logger.Info("watch_reindex_complete", slog.Int("indexed", report.Count()))
	return nil
}
