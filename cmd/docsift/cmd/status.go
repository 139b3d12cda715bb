package cmd

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/store"
	"github.com/Aman-CERP/docsift/internal/ui"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show index health and status",
		Long: `Display information about the index for a document root:
  - Number of indexed documents and the store backend
  - Result of the last reindex
  - Whether a reindex or a watcher is running`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd, opts.rootFor(args), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, root string, jsonOutput bool) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	a, err := openApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	info, err := collectStatus(ctx, a)
	if err != nil {
		return err
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func collectStatus(ctx context.Context, a *app) (ui.StatusInfo, error) {
	st, err := a.indexer.Status(ctx)
	if err != nil {
		return ui.StatusInfo{}, err
	}

	storePath := store.Path(a.cfg.DataDir, a.cfg.Store.Backend)
	info := ui.StatusInfo{
		Root:          a.cfg.Root,
		Backend:       a.cfg.Store.Backend,
		StorePath:     storePath,
		Documents:     st.Documents,
		StoreSize:     pathSize(storePath),
		Indexing:      st.Indexing || index.NewFileLock(a.cfg.DataDir).HeldElsewhere(),
		WatcherStatus: "stopped",
	}
	if index.NewWatchLock(a.cfg.DataDir).HeldElsewhere() {
		info.WatcherStatus = "running"
	}
	if st.LastReport != nil {
		info.LastRun = st.LastReport.Summary()
	}
	return info, nil
}

// pathSize returns the size of a file, or the total size of a directory
// tree. Missing paths count as zero.
func pathSize(path string) int64 {
	if path == "" {
		return 0
	}
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}
