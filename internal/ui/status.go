package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo describes the state of one document root's index.
type StatusInfo struct {
	Root      string `json:"root"`
	Backend   string `json:"backend"`
	StorePath string `json:"store_path,omitempty"`
	Documents int    `json:"documents"`
	StoreSize int64  `json:"store_size"`
	Indexing  bool   `json:"indexing"`

	LastRun *RunSummary `json:"last_run,omitempty"`

	WatcherStatus string `json:"watcher_status,omitempty"` // "running", "stopped", "n/a"
}

// RunSummary is the outcome of the most recent reindex.
type RunSummary struct {
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Indexed     int           `json:"indexed"`
	Scanned     int           `json:"scanned"`
	Empty       int           `json:"empty"`
	Failed      int           `json:"failed"`
	Unsupported int           `json:"unsupported"`
	Skipped     int           `json:"skipped"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.Root))

	_, _ = fmt.Fprintf(r.out, "  Documents:  %d\n", info.Documents)
	_, _ = fmt.Fprintf(r.out, "  Store:      %s (%s)\n", info.Backend, FormatBytes(info.StoreSize))
	if info.StorePath != "" {
		_, _ = fmt.Fprintf(r.out, "  Location:   %s\n", info.StorePath)
	}
	if info.Indexing {
		_, _ = fmt.Fprintf(r.out, "  State:      %s\n", r.renderStatus("indexing"))
	}
	_, _ = fmt.Fprintln(r.out)

	if run := info.LastRun; run != nil {
		_, _ = fmt.Fprintln(r.out, "  Last reindex:")
		_, _ = fmt.Fprintf(r.out, "    When:        %s\n", formatTime(run.StartedAt))
		_, _ = fmt.Fprintf(r.out, "    Duration:    %s\n", formatDuration(run.Duration))
		_, _ = fmt.Fprintf(r.out, "    Indexed:     %d of %d\n", run.Indexed, run.Scanned)
		if run.Empty+run.Failed+run.Unsupported+run.Skipped > 0 {
			_, _ = fmt.Fprintf(r.out, "    Empty:       %d\n", run.Empty)
			_, _ = fmt.Fprintf(r.out, "    Failed:      %s\n", r.renderCount(run.Failed, r.styles.Error))
			_, _ = fmt.Fprintf(r.out, "    Unsupported: %d\n", run.Unsupported)
			_, _ = fmt.Fprintf(r.out, "    Skipped:     %s\n", r.renderCount(run.Skipped, r.styles.Warning))
		}
		_, _ = fmt.Fprintln(r.out)
	} else {
		_, _ = fmt.Fprintf(r.out, "  %s\n\n", r.styles.Warning.Render("Never indexed. Run 'docsift index'."))
	}

	if info.WatcherStatus != "" && info.WatcherStatus != "n/a" {
		_, _ = fmt.Fprintf(r.out, "  Watcher: %s\n", r.renderStatus(info.WatcherStatus))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderCount(n int, style lipgloss.Style) string {
	if n == 0 {
		return "0"
	}
	return style.Render(fmt.Sprintf("%d", n))
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running":
		return r.styles.Success.Render(status)
	case "indexing", "stopped":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
