package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var so searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search documents by file name and content",
		Long: `Search the document root by file name and by indexed content.

File name matches come first. A document whose name and text both match is
reported once as "both". Queries shorter than two characters return nothing.
Content matches need a previous 'docsift index'.`,
		Example: `  docsift search "annual report"
  docsift search invoice -n 5
  docsift search budget --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, opts.root, query, so)
		},
	}

	cmd.Flags().IntVarP(&so.limit, "limit", "n", 0, "Maximum number of results (0 uses search.default_limit)")
	cmd.Flags().StringVarP(&so.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, root, query string, so searchOptions) error {
	if so.format != "text" && so.format != "json" {
		return siftErrors.ValidationError(fmt.Sprintf("unknown format %q", so.format), nil).
			WithSuggestion("use --format text or --format json")
	}
	if so.limit < 0 {
		return siftErrors.ValidationError("limit must not be negative", nil)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	a, err := openApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", so.limit))

	resp, err := a.engine.Search(ctx, query, so.limit)
	if err != nil {
		return err
	}

	if so.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	output.New(cmd.OutOrStdout()).SearchResults(query, resp)
	return nil
}
