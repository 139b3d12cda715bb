package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/output"
	"github.com/Aman-CERP/docsift/internal/watcher"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var forcePolling bool

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Keep the index in sync with the document root",
		Long: `Reindex once, then watch the document root and reindex after every
burst of changes to supported documents. Changes are debounced by
watch.debounce. Stop with Ctrl+C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, opts.rootFor(args), forcePolling)
		},
	}

	cmd.Flags().BoolVar(&forcePolling, "poll", false, "Poll the file system instead of using native events")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, root string, forcePolling bool) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	a, err := openApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := output.New(cmd.OutOrStdout())
	a.indexer.OnComplete(func(r *index.Report) {
		out.Success(r.Message())
		if n := len(r.Failed); n > 0 {
			out.Warningf("%d files failed to extract", n)
		}
	})

	out.Statusf(output.IconSearch, "Watching %s", cfg.Root)
	err = watchAndReindex(ctx, a, forcePolling)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchAndReindex holds the watch lock, runs an initial reindex, then
// reindexes after every debounced batch until ctx is done.
func watchAndReindex(ctx context.Context, a *app, forcePolling bool) error {
	lock := index.NewWatchLock(a.cfg.DataDir)
	if ok, err := lock.TryLock(); err == nil && ok {
		defer func() { _ = lock.Unlock() }()
	} else {
		a.logger.Warn("watch_lock_unavailable", slog.String("lock", lock.Path()))
	}

	opts := watcher.OptionsFrom(a.cfg, a.indexer.Extensions())
	opts.ForcePolling = forcePolling

	w, err := watcher.NewHybridWatcher(opts, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(ctx, a.cfg.Root); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	a.logger.Info("watch_started",
		slog.String("root", a.cfg.Root),
		slog.String("watcher", w.WatcherType()))

	if _, err := a.indexer.Reindex(ctx); err != nil {
		if siftErrors.IsStorageFailure(err) || ctx.Err() != nil {
			return err
		}
		a.logger.Warn("watch_initial_reindex_failed", siftErrors.LogAttrs(err)...)
	}

	return watcher.NewAutoReindexer(w, a.indexer, a.logger).Run(ctx)
}
