package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher detects changes by walking the root on an interval.
type PollingWatcher struct {
	interval  time.Duration
	filter    *filter
	logger    *slog.Logger
	fileState map[string]fileSnapshot
	events    chan FileEvent
	errors    chan error
	stopCh    chan struct{}
	mu        sync.Mutex
	stopped   bool
	rootPath  string
}

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher. A nil filter reports every
// regular file.
func NewPollingWatcher(interval time.Duration, f *filter, logger *slog.Logger) *PollingWatcher {
	if f == nil {
		f = newFilter(Options{IncludeHidden: true})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PollingWatcher{
		interval:  interval,
		filter:    f,
		logger:    logger,
		fileState: make(map[string]fileSnapshot),
		events:    make(chan FileEvent, 100),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
}

// Start takes a baseline snapshot and then polls until Stop or ctx is done.
func (p *PollingWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}

	p.mu.Lock()
	p.rootPath = absPath
	state, err := p.snapshot()
	if err == nil {
		p.fileState = state
	}
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("perform initial scan: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			if err := p.detectChanges(); err != nil {
				select {
				case p.errors <- err:
				default:
				}
			}
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// snapshot walks the root and records relevant files and the config file.
// Must be called with the lock held.
func (p *PollingWatcher) snapshot() (map[string]fileSnapshot, error) {
	state := make(map[string]fileSnapshot)
	err := filepath.WalkDir(p.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == p.rootPath {
				return err
			}
			return nil
		}

		relPath, err := filepath.Rel(p.rootPath, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if p.filter.skipDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !p.filter.relevant(relPath, false) && !isConfigFile(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		state[relPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	return state, err
}

// detectChanges compares the current snapshot with the previous one.
func (p *PollingWatcher) detectChanges() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.snapshot()
	if err != nil {
		return fmt.Errorf("walk directory for changes: %w", err)
	}

	now := time.Now()
	for relPath, snap := range current {
		prev, existed := p.fileState[relPath]
		switch {
		case !existed:
			p.emitEvent(FileEvent{Path: relPath, Operation: p.op(relPath, OpCreate), Timestamp: now})
		case prev.modTime != snap.modTime || prev.size != snap.size:
			p.emitEvent(FileEvent{Path: relPath, Operation: p.op(relPath, OpModify), Timestamp: now})
		}
	}
	for relPath := range p.fileState {
		if _, ok := current[relPath]; !ok {
			p.emitEvent(FileEvent{Path: relPath, Operation: p.op(relPath, OpDelete), Timestamp: now})
		}
	}

	p.fileState = current
	return nil
}

func (p *PollingWatcher) op(relPath string, op Operation) Operation {
	if isConfigFile(relPath) {
		return OpConfigChange
	}
	return op
}

// emitEvent must be called with the lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		p.logger.Warn("poll_buffer_full",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()))
	}
}
