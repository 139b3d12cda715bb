package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/search"
)

// FormatSearchResults renders a search response as markdown.
func FormatSearchResults(query string, resp *search.Response) string {
	if resp == nil || len(resp.Results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Found %d result", resp.Total)
	if resp.Total != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range resp.Results {
		formatResult(&sb, i+1, r)
	}
	return sb.String()
}

func formatResult(sb *strings.Builder, num int, r *search.Result) {
	fmt.Fprintf(sb, "### %d. %s\n", num, r.Path)
	fmt.Fprintf(sb, "**Match:** %s\n\n", r.MatchType)
	if r.Snippet != "" {
		fmt.Fprintf(sb, "> %s\n\n", strings.ReplaceAll(r.Snippet, "\n", " "))
	}
}

// FormatReport renders a reindex report as markdown.
func FormatReport(r *index.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", r.Message())
	fmt.Fprintf(&sb, "Scanned %d files in %s.\n", r.Scanned, r.Duration.Round(time.Millisecond))

	writeOutcomes(&sb, "Failed", r.Failed)
	writeOutcomes(&sb, "Empty", r.Empty)
	writeOutcomes(&sb, "Skipped", r.Skipped)
	writeOutcomes(&sb, "Unsupported", r.Unsupported)
	return sb.String()
}

func writeOutcomes(sb *strings.Builder, title string, outcomes []index.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n**%s (%d)**\n", title, len(outcomes))
	for _, o := range outcomes {
		fmt.Fprintf(sb, "- %s: %s\n", o.Path, o.Reason)
	}
}

// ToSearchOutput converts an engine response to the tool output schema.
func ToSearchOutput(resp *search.Response) SearchOutput {
	out := SearchOutput{Results: []SearchResultOutput{}}
	if resp == nil {
		return out
	}
	for _, r := range resp.Results {
		if r == nil {
			continue
		}
		out.Results = append(out.Results, SearchResultOutput{
			Path:      r.Path,
			Name:      r.Name,
			MatchType: string(r.MatchType),
			Snippet:   r.Snippet,
			MIMEType:  MimeTypeForPath(r.Path),
		})
	}
	out.Total = len(out.Results)
	return out
}

// ToReindexOutput converts a report to the tool output schema.
func ToReindexOutput(r *index.Report) ReindexOutput {
	return ReindexOutput{
		Message:     r.Message(),
		Count:       r.Count(),
		Scanned:     r.Scanned,
		DurationMS:  r.Duration.Milliseconds(),
		Empty:       toOutcomes(r.Empty),
		Failed:      toOutcomes(r.Failed),
		Unsupported: toOutcomes(r.Unsupported),
		Skipped:     toOutcomes(r.Skipped),
	}
}

func toOutcomes(in []index.Outcome) []OutcomeOutput {
	out := make([]OutcomeOutput, 0, len(in))
	for _, o := range in {
		out = append(out, OutcomeOutput{Path: o.Path, Reason: o.Reason})
	}
	return out
}

func toLastRun(r *index.Report) *LastRunSummary {
	if r == nil {
		return nil
	}
	s := r.Summary()
	return &LastRunSummary{
		StartedAt:   s.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:  s.Duration.Milliseconds(),
		Indexed:     s.Indexed,
		Scanned:     s.Scanned,
		Empty:       s.Empty,
		Failed:      s.Failed,
		Unsupported: s.Unsupported,
		Skipped:     s.Skipped,
	}
}
