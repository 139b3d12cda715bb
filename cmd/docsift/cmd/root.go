// Package cmd provides the CLI commands for docsift.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/logging"
	"github.com/Aman-CERP/docsift/pkg/version"
)

// ownLogging marks commands that configure logging themselves.
const ownLogging = "own-logging"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	root    string
	debug   bool
	logFile string

	loggingCleanup func()
}

// rootFor returns the document root for a command taking an optional
// [path] argument. The argument wins over --root.
func (o *rootOptions) rootFor(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return o.root
}

// logConfig returns the logging setup for CLI commands: file only, or file
// plus stderr at debug level with --debug.
func (o *rootOptions) logConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if o.debug {
		cfg = logging.DebugConfig()
	}
	if o.logFile != "" {
		cfg.FilePath = o.logFile
	}
	return cfg
}

// NewRootCmd creates the root command for the docsift CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "docsift",
		Short: "Index and search the documents in a folder",
		Long: `docsift extracts text from the documents under a folder (pdf, docx, doc,
xlsx, xls, rtf, txt) and finds them by file name or by content.

Run 'docsift index' once, then 'docsift search <query>', or expose both
to AI assistants with 'docsift serve'.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetVersionTemplate("docsift version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.root, "root", "r", ".", "Document root to index and search")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging (also mirrored to stderr)")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log file path (default ~/.docsift/logs/docsift.log)")

	cmd.PersistentPreRunE = opts.startLogging
	cmd.PersistentPostRunE = opts.stopLogging

	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the default logger unless the command sets up its
// own (serve must keep stdout and stderr clean).
func (o *rootOptions) startLogging(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[ownLogging] == "true" {
		return nil
	}

	logger, cleanup, err := logging.Setup(o.logConfig())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("cli_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version))
	return nil
}

func (o *rootOptions) stopLogging(_ *cobra.Command, _ []string) error {
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints failures for the terminal.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, siftErrors.FormatForCLI(err))
	}
	return err
}

// absRoot resolves the document root for display and error messages.
func absRoot(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return root
	}
	return abs
}
