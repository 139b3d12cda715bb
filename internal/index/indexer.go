// Package index rebuilds the content store from the document root.
//
// A run clears the store and re-derives every entry from the files present
// now; nothing survives a reindex unless its file still extracts to
// non-empty text. Runs are deduplicated inside a process and serialized
// across processes by a lock file in the data directory.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/docsift/internal/config"
	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/extract"
	"github.com/Aman-CERP/docsift/internal/scanner"
	"github.com/Aman-CERP/docsift/internal/store"
	"github.com/Aman-CERP/docsift/internal/ui"
)

// reindexKey deduplicates concurrent Reindex calls.
const reindexKey = "reindex"

// Dependencies contains the injected dependencies for Indexer.
type Dependencies struct {
	// Config is the resolved configuration (required, Root must be set).
	Config *config.Config

	// Store receives extracted documents (required).
	Store store.ContentStore

	// Dispatcher extracts text. Defaults to every built-in extractor.
	Dispatcher *extract.Dispatcher

	// Scanner walks the root. Defaults to scanner.New(Logger).
	Scanner *scanner.Scanner

	// Renderer shows progress. Defaults to ui.NopRenderer.
	Renderer ui.Renderer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Status is a point-in-time view of the index.
type Status struct {
	Documents  int
	Indexing   bool
	LastReport *Report
}

// Indexer owns every write to the content store.
type Indexer struct {
	cfg        *config.Config
	store      store.ContentStore
	dispatcher *extract.Dispatcher
	scanner    *scanner.Scanner
	renderer   ui.Renderer
	logger     *slog.Logger
	lock       *FileLock

	group   singleflight.Group
	running atomic.Bool

	mu         sync.RWMutex
	lastReport *Report
	hooks      []func(*Report)
}

// NewIndexer creates an Indexer with injected dependencies.
func NewIndexer(deps Dependencies) (*Indexer, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Config.Root == "" {
		return nil, fmt.Errorf("config root is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("content store is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = extract.NewDispatcher(
			extract.WithMaxFileSize(deps.Config.MaxFileSize()),
			extract.WithLogger(logger),
		)
	}

	sc := deps.Scanner
	if sc == nil {
		sc = scanner.New(logger)
	}

	renderer := deps.Renderer
	if renderer == nil {
		renderer = ui.NopRenderer{}
	}

	ix := &Indexer{
		cfg:        deps.Config,
		store:      deps.Store,
		dispatcher: dispatcher,
		scanner:    sc,
		renderer:   renderer,
		logger:     logger,
	}
	if deps.Config.DataDir != "" {
		ix.lock = NewFileLock(deps.Config.DataDir)
	}
	return ix, nil
}

// OnComplete registers fn to run after every successful reindex.
func (ix *Indexer) OnComplete(fn func(*Report)) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.hooks = append(ix.hooks, fn)
}

// SetRenderer replaces the progress renderer used by later runs.
func (ix *Indexer) SetRenderer(r ui.Renderer) {
	if r == nil {
		r = ui.NopRenderer{}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.renderer = r
}

// Extensions returns the extensions the indexer can extract.
func (ix *Indexer) Extensions() []string {
	return ix.dispatcher.Extensions()
}

// Reindex clears the store and rebuilds it from the document root.
// Calls that overlap an in-flight run join it and receive the same report;
// the joined run uses the context of the call that started it.
// Only storage failures, a held lock, an unreadable root, or cancellation
// return an error; per-file problems are listed in the report.
func (ix *Indexer) Reindex(ctx context.Context) (*Report, error) {
	v, err, shared := ix.group.Do(reindexKey, func() (any, error) {
		return ix.run(ctx)
	})
	if shared {
		ix.logger.Debug("reindex_joined")
	}
	if err != nil {
		return nil, err
	}
	return v.(*Report), nil
}

// IsIndexing reports whether a run is in progress in this process.
func (ix *Indexer) IsIndexing() bool {
	return ix.running.Load()
}

// Status returns the stored document count and the latest report. The
// report falls back to the one persisted by an earlier process.
func (ix *Indexer) Status(ctx context.Context) (*Status, error) {
	count, err := ix.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	last := ix.lastReport
	ix.mu.RUnlock()

	if last == nil && ix.cfg.DataDir != "" {
		last, err = loadReport(ix.cfg.DataDir)
		if err != nil {
			ix.logger.Warn("report_load_failed", slog.String("error", err.Error()))
		}
	}

	return &Status{
		Documents:  count,
		Indexing:   ix.running.Load(),
		LastReport: last,
	}, nil
}

// extracted pairs a walked file with its extraction result.
type extracted struct {
	file   *scanner.FileInfo
	result extract.Result
}

func (ix *Indexer) run(ctx context.Context) (*Report, error) {
	ix.running.Store(true)
	defer ix.running.Store(false)

	if ix.lock != nil {
		if err := ix.lock.Acquire(ctx, ix.cfg.LockTimeoutDuration()); err != nil {
			return nil, err
		}
		defer func() {
			if err := ix.lock.Unlock(); err != nil {
				ix.logger.Warn("index_unlock_failed", slog.String("error", err.Error()))
			}
		}()
	}

	ix.mu.RLock()
	renderer := ix.renderer
	ix.mu.RUnlock()

	start := time.Now()
	report := newReport(start, ix.cfg.Store.Backend)
	ix.logger.Info("reindex_started",
		slog.String("root", ix.cfg.Root),
		slog.String("backend", ix.cfg.Store.Backend))

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning, Message: "Walking " + ix.cfg.Root})

	// Walk before clearing so search keeps answering from the old contents
	// for as long as possible.
	files, err := ix.scanner.List(ctx, &scanner.ScanOptions{
		Root:            ix.cfg.Root,
		ExcludePatterns: ix.cfg.Paths.Exclude,
		IncludeHidden:   ix.cfg.Paths.IncludeHidden,
		FollowSymlinks:  ix.cfg.Paths.FollowSymlinks,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, siftErrors.New(siftErrors.ErrCodeIndexFailed, "walk document root", err).
			WithDetail("root", ix.cfg.Root)
	}
	report.Scanned = len(files)
	report.scanTime = time.Since(start)

	if err := ix.store.Clear(ctx); err != nil {
		ix.logger.Error("reindex_clear_failed", siftErrors.LogAttrs(err)...)
		return nil, err
	}

	supported := make([]*scanner.FileInfo, 0, len(files))
	for _, f := range files {
		if ix.dispatcher.Supports(f.Ext) {
			supported = append(supported, f)
			continue
		}
		report.Unsupported = append(report.Unsupported, Outcome{
			Path:   f.Path,
			Reason: unsupportedReason(f.Ext),
			Code:   siftErrors.ErrCodeUnsupportedFormat,
		})
		ix.logger.Debug("index_skip_unsupported", slog.String("path", f.Path), slog.String("ext", f.Ext))
	}

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageExtracting, Total: len(supported)})

	if err := ix.extractAll(ctx, supported, report, renderer); err != nil {
		return nil, err
	}

	report.sortOutcomes()
	report.Duration = time.Since(start)
	ix.finish(report)
	renderer.Complete(report.CompletionStats())
	return report, nil
}

// extractAll runs extraction on a bounded pool. All store writes happen on
// the calling goroutine.
func (ix *Indexer) extractAll(ctx context.Context, files []*scanner.FileInfo, report *Report, renderer ui.Renderer) error {
	if len(files) == 0 {
		return ctx.Err()
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(max(ix.cfg.Index.Workers, 1))
	if err != nil {
		return siftErrors.InternalError("create extraction pool", err)
	}
	defer pool.Release()

	results := make(chan extracted, max(ix.cfg.Index.Workers, 1))

	var submitErr error
	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(results)
		}()

		for _, f := range files {
			if ctx.Err() != nil {
				return
			}
			wg.Add(1)
			err := pool.Submit(func() {
				defer wg.Done()
				if ctx.Err() != nil {
					return
				}
				res := ix.dispatcher.Extract(ctx, f.AbsPath)
				select {
				case results <- extracted{file: f, result: res}:
				case <-ctx.Done():
				}
			})
			if err != nil {
				wg.Done()
				submitErr = err
				cancel()
				return
			}
		}
	}()

	var storeErr error
	done := 0
	for item := range results {
		done++
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageExtracting,
			Current:     done,
			Total:       len(files),
			CurrentFile: item.file.Path,
		})
		if storeErr != nil {
			continue
		}
		if err := ix.record(ctx, item, report, renderer); err != nil {
			storeErr = err
			cancel()
		}
	}

	if storeErr != nil {
		ix.logger.Error("reindex_store_failed", siftErrors.LogAttrs(storeErr)...)
		return storeErr
	}
	if err := parent.Err(); err != nil {
		return err
	}
	if submitErr != nil {
		return siftErrors.InternalError("submit extraction task", submitErr)
	}
	return nil
}

// record files one extraction result into the report, writing successful
// text to the store.
func (ix *Indexer) record(ctx context.Context, item extracted, report *Report, renderer ui.Renderer) error {
	f, res := item.file, item.result

	switch res.Status {
	case extract.StatusOK:
		doc := &store.Document{
			Path:      f.Path,
			Name:      f.Name,
			Content:   res.Text,
			IndexedAt: time.Now(),
		}
		if err := ix.store.Upsert(ctx, doc); err != nil {
			return err
		}
		report.Indexed++

	case extract.StatusEmpty:
		report.Empty = append(report.Empty, Outcome{Path: f.Path, Reason: "no text extracted"})

	case extract.StatusSkipped:
		report.Skipped = append(report.Skipped, outcomeFor(f.Path, res.Err))
		renderer.AddError(ui.ErrorEvent{File: f.Path, Err: res.Err, IsWarn: true})

	case extract.StatusUnsupported:
		report.Unsupported = append(report.Unsupported, outcomeFor(f.Path, res.Err))

	default:
		report.Failed = append(report.Failed, outcomeFor(f.Path, res.Err))
		renderer.AddError(ui.ErrorEvent{File: f.Path, Err: res.Err, IsWarn: true})
	}
	return nil
}

// finish publishes a completed report.
func (ix *Indexer) finish(report *Report) {
	ix.mu.Lock()
	ix.lastReport = report
	hooks := append([]func(*Report){}, ix.hooks...)
	ix.mu.Unlock()

	if ix.cfg.DataDir != "" {
		if err := saveReport(ix.cfg.DataDir, report); err != nil {
			ix.logger.Warn("report_save_failed", slog.String("error", err.Error()))
		}
	}

	ix.logger.Info("reindex_complete",
		slog.Int("indexed", report.Indexed),
		slog.Int("scanned", report.Scanned),
		slog.Int("empty", len(report.Empty)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("unsupported", len(report.Unsupported)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Duration("duration", report.Duration))

	for _, fn := range hooks {
		fn(report)
	}
}

func outcomeFor(path string, err error) Outcome {
	o := Outcome{Path: path, Code: siftErrors.GetCode(err)}
	if err != nil {
		o.Reason = err.Error()
		var se *siftErrors.SiftError
		if errors.As(err, &se) && se.Cause != nil {
			o.Reason = se.Cause.Error()
		}
	}
	return o
}

func unsupportedReason(ext string) string {
	if ext == "" {
		return "no file extension"
	}
	return "unsupported extension " + ext
}
