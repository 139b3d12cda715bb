package watcher

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/Aman-CERP/docsift/internal/config"
	"github.com/Aman-CERP/docsift/internal/scanner"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
	// OpRename indicates a file was renamed away.
	OpRename
	// OpConfigChange indicates the project config file changed.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is relative to the watched root, slash-separated.
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// Watcher delivers debounced batches of relevant events.
type Watcher interface {
	// Start watches root recursively until Stop is called or ctx is done.
	Start(ctx context.Context, root string) error

	// Stop releases resources. Safe to call multiple times.
	Stop() error

	// Events returns batches of coalesced events. Closed on Stop.
	Events() <-chan []FileEvent

	// Errors returns non-fatal watcher errors. Closed on Stop.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the quiet period before a batch is emitted.
	// Default: 500ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the batch channel buffer.
	// Default: 100
	EventBufferSize int

	// Extensions limits events to these file extensions (lowercase, with
	// dot). Empty means every file.
	Extensions []string

	// ExcludePatterns and IncludeHidden follow the scanner's rules.
	ExcludePatterns []string
	IncludeHidden   bool

	// ForcePolling skips fsnotify.
	ForcePolling bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 100,
	}
}

// OptionsFrom derives watcher options from the configuration.
func OptionsFrom(cfg *config.Config, extensions []string) Options {
	return Options{
		DebounceWindow:  cfg.DebounceDuration(),
		Extensions:      extensions,
		ExcludePatterns: cfg.Paths.Exclude,
		IncludeHidden:   cfg.Paths.IncludeHidden,
	}.WithDefaults()
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}

// filter decides which paths matter to the index.
type filter struct {
	exts          map[string]struct{}
	patterns      []string
	includeHidden bool
}

func newFilter(o Options) *filter {
	f := &filter{patterns: o.ExcludePatterns, includeHidden: o.IncludeHidden}
	if len(o.Extensions) > 0 {
		f.exts = make(map[string]struct{}, len(o.Extensions))
		for _, ext := range o.Extensions {
			f.exts[strings.ToLower(ext)] = struct{}{}
		}
	}
	return f
}

// skipDir reports whether a directory should not be watched.
func (f *filter) skipDir(relPath string) bool {
	if relPath == "." || relPath == "" {
		return false
	}
	return scanner.Excluded(relPath, f.patterns, f.includeHidden)
}

// relevant reports whether a change to relPath could change the index.
func (f *filter) relevant(relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" || isDir {
		return false
	}
	if scanner.Excluded(relPath, f.patterns, f.includeHidden) {
		return false
	}
	if f.exts == nil {
		return true
	}
	_, ok := f.exts[scanner.Ext(relPath)]
	return ok
}

// isConfigFile reports whether relPath is the project config at the root.
func isConfigFile(relPath string) bool {
	if strings.Contains(relPath, "/") {
		return false
	}
	base := path.Base(relPath)
	return base == config.ProjectFileName || base == strings.TrimSuffix(config.ProjectFileName, ".yaml")+".yml"
}
