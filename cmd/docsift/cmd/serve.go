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
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docsift/internal/logging"
	"github.com/Aman-CERP/docsift/internal/mcp"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Start the MCP server over stdio",
		Long: `Serve the search, reindex and index_status tools to MCP clients over
stdio. stdout carries JSON-RPC only; logs go to the log file.

With --watch the index is rebuilt at startup and after every burst of
document changes.`,
		Example: `  docsift serve
  docsift serve ~/Documents --watch`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{ownLogging: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, opts.rootFor(args), watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Reindex on startup and whenever documents change")

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, root string, watch bool) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	level := cfg.Server.LogLevel
	if opts.debug {
		level = "debug"
	}
	cleanup, err := logging.SetupMCPMode(level, opts.logFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	a, err := openApp(cfg, slog.Default())
	if err != nil {
		slog.Error("serve_open_failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := mcp.NewServer(a.engine, a.indexer, cfg, a.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if watch {
		g.Go(func() error {
			return watchAndReindex(gctx, a, false)
		})
	}
	g.Go(func() error {
		// The watcher stops with the server.
		defer cancel()
		return srv.Serve(gctx, cfg.Server.Transport)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
