// Package output provides consistent CLI output formatting for search
// results and reindex reports.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/docsift/internal/index"
	"github.com/Aman-CERP/docsift/internal/search"
)

// Status icons.
const (
	IconSuccess = "\u2705"
	IconWarning = "\u26a0\ufe0f "
	IconError   = "\u274c"
	IconSearch  = "\U0001f50d"
)

// maxListed caps each outcome list in ReportDetails.
const maxListed = 20

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(IconSuccess, msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(IconWarning, msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(IconError, msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints a block with indentation.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// SearchResults prints a search response, one numbered entry per result
// with its snippet on the following line.
func (w *Writer) SearchResults(query string, resp *search.Response) {
	if resp == nil || len(resp.Results) == 0 {
		w.Status("", fmt.Sprintf("No results found for %q", query))
		return
	}

	noun := "results"
	if resp.Total == 1 {
		noun = "result"
	}
	w.Statusf(IconSearch, "Found %d %s for %q:", resp.Total, noun, query)
	w.Newline()

	for i, r := range resp.Results {
		w.Statusf("", "%d. %s [%s]", i+1, r.Path, r.MatchType)
		if r.Snippet != "" {
			w.Status("", "   "+flatten(r.Snippet))
		}
	}
}

// ReportDetails lists the files a reindex did not index, grouped by
// outcome. Long lists are cut after a fixed number of entries.
func (w *Writer) ReportDetails(r *index.Report) {
	w.outcomes(IconError, "failed", r.Failed)
	w.outcomes(IconWarning, "empty", r.Empty)
	w.outcomes(IconWarning, "skipped", r.Skipped)
	w.outcomes("", "unsupported", r.Unsupported)
}

func (w *Writer) outcomes(icon, label string, list []index.Outcome) {
	if len(list) == 0 {
		return
	}
	w.Statusf(icon, "%d %s:", len(list), label)
	for i, o := range list {
		if i == maxListed {
			w.Statusf("", "   ... and %d more", len(list)-maxListed)
			break
		}
		w.Statusf("", "   %s: %s", o.Path, o.Reason)
	}
}

// flatten collapses line breaks so a snippet prints on one line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
