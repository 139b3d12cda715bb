package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
// Format: [STAGE] current/total - message or file
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}

	if event.Total > 0 {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	} else if msg != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = StageComplete
	_, _ = fmt.Fprintf(r.out, "Indexed %d files (%d scanned) in %s\n",
		stats.Indexed, stats.Scanned, stats.Duration.Round(100*time.Millisecond))

	if stats.Empty+stats.Failed+stats.Unsupported+stats.Skipped > 0 {
		_, _ = fmt.Fprintf(r.out, "  empty: %d  failed: %d  unsupported: %d  skipped: %d\n",
			stats.Empty, stats.Failed, stats.Unsupported, stats.Skipped)
	}

	if stats.Stages.Scan > 0 || stats.Stages.Extract > 0 {
		_, _ = fmt.Fprintf(r.out, "  scan: %s  extract: %s\n",
			stats.Stages.Scan.Round(time.Millisecond), stats.Stages.Extract.Round(time.Millisecond))
	}
	if stats.Backend != "" {
		_, _ = fmt.Fprintf(r.out, "  store: %s\n", stats.Backend)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
