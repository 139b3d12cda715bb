package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/docsift/internal/scanner"
)

// HybridWatcher uses fsnotify and falls back to polling when fsnotify
// cannot be initialized.
type HybridWatcher struct {
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	useFsnotify    bool
	debouncer      *Debouncer
	filter         *filter
	paths          *scanner.Scanner
	logger         *slog.Logger
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a watcher. A nil logger falls back to
// slog.Default().
func NewHybridWatcher(opts Options, logger *slog.Logger) (*HybridWatcher, error) {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	h := &HybridWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow, logger),
		filter:    newFilter(opts),
		paths:     scanner.New(logger),
		logger:    logger,
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			h.fsWatcher = fsw
			h.useFsnotify = true
			return h, nil
		}
		logger.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
	}

	h.pollWatcher = NewPollingWatcher(opts.PollInterval, h.filter, logger)
	return h, nil
}

// Start begins watching root. It blocks until Stop or ctx cancellation.
func (h *HybridWatcher) Start(ctx context.Context, root string) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	h.mu.Lock()
	h.rootPath = absPath
	h.mu.Unlock()

	go h.forwardDebouncedEvents(ctx)

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	if err := h.addRecursive(h.rootPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

func (h *HybridWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				h.debouncer.Add(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handleFsnotifyEvent converts and filters one fsnotify event.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)

	if isConfigFile(relPath) && event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		h.debouncer.Add(FileEvent{Path: relPath, Operation: OpConfigChange, Timestamp: time.Now()})
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			h.watchNewDir(event.Name, relPath)
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	if !h.relevant(relPath, isDir, op) {
		return
	}
	// Editors often create and rename temp files within one burst.
	if (op == OpCreate || op == OpModify) && !h.paths.Exists(h.rootPath, relPath) {
		return
	}

	h.debouncer.Add(FileEvent{
		Path:      relPath,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// relevant applies the filter. A removed or renamed path without an
// extension may have been a directory holding documents, so it counts.
func (h *HybridWatcher) relevant(relPath string, isDir bool, op Operation) bool {
	if h.filter.relevant(relPath, isDir) {
		return true
	}
	if op == OpDelete || op == OpRename {
		return scanner.Ext(relPath) == "" && !h.filter.skipDir(relPath)
	}
	return false
}

// watchNewDir starts watching a created directory and reports the
// documents already inside it, which were written before the watch began.
func (h *HybridWatcher) watchNewDir(absPath, relPath string) {
	if h.filter.skipDir(relPath) {
		return
	}
	if err := h.addRecursive(absPath); err != nil {
		h.emitError(err)
		return
	}
	_ = filepath.WalkDir(absPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.rootPath, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if h.filter.relevant(rel, false) {
			h.debouncer.Add(FileEvent{Path: rel, Operation: OpCreate, Timestamp: time.Now()})
		}
		return nil
	})
}

func (h *HybridWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case events, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(events) > 0 {
				h.emitEvents(events)
			}
		}
	}
}

// addRecursive adds every non-excluded directory under root.
func (h *HybridWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(h.rootPath, path)
		if h.filter.skipDir(filepath.ToSlash(relPath)) {
			return filepath.SkipDir
		}
		return h.fsWatcher.Add(path)
	})
}

func (h *HybridWatcher) emitEvents(events []FileEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.events <- events:
	default:
		count := h.droppedBatches.Add(1)
		h.logger.Warn("watch_buffer_full",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count))
	}
}

// DroppedBatches returns the number of batches dropped due to a full buffer.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop implements Watcher.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true
	close(h.stopCh)
	h.debouncer.Stop()

	if h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events implements Watcher.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors implements Watcher.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// WatcherType returns "fsnotify" or "polling".
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}
