package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/output"
	"github.com/Aman-CERP/docsift/internal/ui"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		noTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Rebuild the document index",
		Long: `Rebuild the index for a document root.

Every file under the root is walked once. Supported documents (pdf, xlsx,
xls, docx, doc, rtf, txt) are extracted and stored; everything else is
listed as unsupported. The previous index is replaced.

Only storage failures abort a run. Files that cannot be read are reported
and the run continues.`,
		Example: `  docsift index
  docsift index ~/Documents --no-tui
  docsift index --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, opts.rootFor(args), jsonOutput, noTUI)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the reindex report as JSON")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}

// indexResult is the --json shape of a completed run.
type indexResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	*index.Report
}

func runIndex(ctx context.Context, cmd *cobra.Command, root string, jsonOutput, noTUI bool) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	a, err := openApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var renderer ui.Renderer = ui.NopRenderer{}
	if !jsonOutput {
		renderer = ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
			ui.WithForcePlain(noTUI),
			ui.WithNoColor(ui.DetectNoColor()),
			ui.WithRootDir(cfg.Root)))
	}
	a.indexer.SetRenderer(renderer)

	if err := renderer.Start(ctx); err != nil {
		return err
	}
	report, err := a.indexer.Reindex(ctx)
	_ = renderer.Stop()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(indexResult{
			Message: report.Message(),
			Count:   report.Count(),
			Report:  report,
		})
	}

	out := output.New(cmd.OutOrStdout())
	if _, ok := renderer.(*ui.TUIRenderer); ok {
		out.Success(report.Message())
	}
	out.ReportDetails(report)
	return nil
}
