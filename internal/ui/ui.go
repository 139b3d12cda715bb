// Package ui renders reindex progress and index status in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage represents a reindex stage.
type Stage int

const (
	// StageScanning is the directory walk.
	StageScanning Stage = iota
	// StageExtracting is text extraction and storage.
	StageExtracting
	// StageComplete indicates the run finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "Scanning"
	case StageExtracting:
		return "Extracting"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageScanning:
		return "SCAN"
	case StageExtracting:
		return "EXTRACT"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Stage       Stage
	Current     int
	Total       int
	CurrentFile string
	Message     string
}

// ErrorEvent represents a per-file problem. IsWarn marks non-fatal ones.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// StageTimings tracks duration for each stage.
type StageTimings struct {
	Scan    time.Duration
	Extract time.Duration
}

// CompletionStats summarizes a finished reindex.
type CompletionStats struct {
	Indexed     int
	Scanned     int
	Empty       int
	Failed      int
	Unsupported int
	Skipped     int
	Duration    time.Duration
	Stages      StageTimings
	Backend     string
}

// Renderer defines the interface for progress display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	RootDir    string // Document root shown in the header
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithRootDir sets the document root displayed in the header.
func WithRootDir(dir string) ConfigOption {
	return func(c *Config) {
		c.RootDir = dir
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// renderer for CI, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// NopRenderer discards all progress. Used when nothing is attached to a
// terminal, such as MCP and watch mode.
type NopRenderer struct{}

// Start implements Renderer.
func (NopRenderer) Start(context.Context) error { return nil }

// UpdateProgress implements Renderer.
func (NopRenderer) UpdateProgress(ProgressEvent) {}

// AddError implements Renderer.
func (NopRenderer) AddError(ErrorEvent) {}

// Complete implements Renderer.
func (NopRenderer) Complete(CompletionStats) {}

// Stop implements Renderer.
func (NopRenderer) Stop() error { return nil }

var _ Renderer = NopRenderer{}
