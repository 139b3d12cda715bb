package cmd

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/preflight"
)

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Check that a document root can be indexed",
		Long: `Run environment checks for a document root:
  - The root is a readable directory
  - The data directory is writable
  - Free disk space (100 MB minimum)
  - Open-file limit (warning below 1024)
  - The configured store backend opens

Stop a running watcher or server before checking a bleve or badger store;
those backends allow one process at a time.`,
		Example: `  docsift doctor
  docsift doctor ~/Documents --verbose
  docsift doctor --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts.rootFor(args), verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// doctorReport is the --json shape.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func runDoctor(cmd *cobra.Command, root string, verbose, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	checker := preflight.New(
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(ctx, cfg)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return siftErrors.New(siftErrors.ErrCodeInternal, "system check failed", nil).
			WithSuggestion("fix the failed checks above and run 'docsift doctor' again")
	}
	return nil
}
