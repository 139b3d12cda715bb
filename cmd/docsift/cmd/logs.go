package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/logging"
	"github.com/Aman-CERP/docsift/internal/ui"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var lo logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View docsift logs",
		Long: `Show the last lines of the docsift log file, or follow it with -f.

The file is ~/.docsift/logs/docsift.log unless --log-file is given.`,
		Example: `  docsift logs
  docsift logs -f
  docsift logs --level error
  docsift logs --filter extract_failed -n 200`,
		Annotations: map[string]string{ownLogging: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.logFile
			if path == "" {
				path = logging.DefaultLogPath()
			}
			return runLogs(cmd, path, lo)
		},
	}

	cmd.Flags().BoolVarP(&lo.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&lo.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&lo.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&lo.filter, "filter", "", "Only lines matching this regular expression")
	cmd.Flags().BoolVar(&lo.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runLogs(cmd *cobra.Command, path string, lo logsOptions) error {
	var pattern *regexp.Regexp
	if lo.filter != "" {
		var err error
		if pattern, err = regexp.Compile(lo.filter); err != nil {
			return siftErrors.ValidationError("invalid filter pattern", err)
		}
	}

	if _, err := os.Stat(path); err != nil {
		return siftErrors.New(siftErrors.ErrCodeFileNotFound, "log file not found", err).
			WithDetail("path", path).
			WithSuggestion("run a docsift command first, or pass --log-file")
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   lo.level,
		Pattern: pattern,
		NoColor: lo.noColor || ui.DetectNoColor(),
	}, cmd.OutOrStdout())

	fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n---\n", path)

	if !lo.follow {
		entries, err := viewer.Tail(path, lo.lines)
		if err != nil {
			return err
		}
		viewer.Print(entries)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followLog(ctx, cmd, viewer, path)
}

func followLog(ctx context.Context, cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	entries := make(chan logging.Entry, 100)
	errCh := make(chan error, 1)
	go func() { errCh <- viewer.Follow(ctx, path, entries) }()

	for {
		select {
		case e := <-entries:
			fmt.Fprintln(cmd.OutOrStdout(), viewer.Format(e))
		case err := <-errCh:
			return err
		}
	}
}
