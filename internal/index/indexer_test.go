package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsift/internal/config"
	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/extract"
	"github.com/Aman-CERP/docsift/internal/store"
	"github.com/Aman-CERP/docsift/internal/ui"
)

// testConfig returns a config rooted at a fresh temp dir with its data dir
// kept outside the root.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Root = t.TempDir()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Store.Backend = "memory"
	cfg.Index.Workers = 2
	cfg.Index.LockTimeout = "0s"
	return cfg
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestIndexer(t *testing.T, cfg *config.Config, st store.ContentStore, opts ...extract.Option) *Indexer {
	t.Helper()
	deps := Dependencies{Config: cfg, Store: st}
	if len(opts) > 0 {
		deps.Dispatcher = extract.NewDispatcher(opts...)
	}
	ix, err := NewIndexer(deps)
	require.NoError(t, err)
	return ix
}

// failingStore fails every upsert after the first n.
type failingStore struct {
	store.ContentStore
	allowed atomic.Int32
}

func (f *failingStore) Upsert(ctx context.Context, doc *store.Document) error {
	if f.allowed.Add(-1) < 0 {
		return siftErrors.StorageError("upsert", errors.New("disk full"))
	}
	return f.ContentStore.Upsert(ctx, doc)
}

// recordingRenderer captures completion for assertions.
type recordingRenderer struct {
	ui.NopRenderer
	mu       sync.Mutex
	events   int
	warnings int
	complete *ui.CompletionStats
}

func (r *recordingRenderer) UpdateProgress(ui.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events++
}

func (r *recordingRenderer) AddError(ui.ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings++
}

func (r *recordingRenderer) Complete(stats ui.CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = &stats
}

func TestNewIndexer_ValidatesDependencies(t *testing.T) {
	_, err := NewIndexer(Dependencies{})
	assert.Error(t, err)

	_, err = NewIndexer(Dependencies{Config: config.NewConfig(), Store: store.NewMemoryStore()})
	assert.Error(t, err, "root is required")

	cfg := testConfig(t)
	_, err = NewIndexer(Dependencies{Config: cfg})
	assert.Error(t, err, "store is required")
}

func TestIndexer_Reindex_ClassifiesEveryFile(t *testing.T) {
	// Given: a root with indexable, empty, corrupt and unsupported files
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "notes.txt", "  the neural network  ")
	writeDoc(t, cfg.Root, "sub/deep/plan.TXT", "quarterly plan")
	writeDoc(t, cfg.Root, "blank.txt", "   ")
	writeDoc(t, cfg.Root, "broken.pdf", "not a pdf")
	writeDoc(t, cfg.Root, "archive.zip", "PK")
	writeDoc(t, cfg.Root, "README", "no extension")
	st := store.NewMemoryStore()
	ix := newTestIndexer(t, cfg, st)

	// When: reindexing
	report, err := ix.Reindex(context.Background())

	// Then: only non-empty extractions are stored and counted
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count())
	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, "Indexed 2 files", report.Message())
	assert.Equal(t, []Outcome{{Path: "blank.txt", Reason: "no text extracted"}}, report.Empty)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "broken.pdf", report.Failed[0].Path)
	assert.Equal(t, siftErrors.ErrCodeExtractionFailed, report.Failed[0].Code)
	assert.Equal(t, []Outcome{
		{Path: "README", Reason: "no file extension", Code: siftErrors.ErrCodeUnsupportedFormat},
		{Path: "archive.zip", Reason: "unsupported extension .zip", Code: siftErrors.ErrCodeUnsupportedFormat},
	}, report.Unsupported)

	docs, err := st.FindContaining(context.Background(), "e", 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "notes.txt", docs[0].Path)
	assert.Equal(t, "the neural network", docs[0].Content)
	assert.Equal(t, "sub/deep/plan.TXT", docs[1].Path)
	assert.Equal(t, "plan.TXT", docs[1].Name)
	assert.False(t, docs[1].IndexedAt.IsZero())
}

func TestIndexer_Reindex_IsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"a.txt", "b.txt", "c/d.txt"} {
		writeDoc(t, cfg.Root, name, "content of "+name)
	}
	st := store.NewMemoryStore()
	ix := newTestIndexer(t, cfg, st)

	first, err := ix.Reindex(context.Background())
	require.NoError(t, err)
	second, err := ix.Reindex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, first.Count())
	assert.Equal(t, first.Count(), second.Count())
	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIndexer_Reindex_DropsEntriesForRemovedFiles(t *testing.T) {
	// Given: an indexed file that is then deleted
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "keep.txt", "keep me")
	writeDoc(t, cfg.Root, "gone.txt", "delete me")
	st := store.NewMemoryStore()
	ix := newTestIndexer(t, cfg, st)
	_, err := ix.Reindex(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(cfg.Root, "gone.txt")))

	// When: reindexing again
	report, err := ix.Reindex(context.Background())

	// Then: the deleted file no longer has content
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count())
	docs, err := st.FindContaining(context.Background(), "delete", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIndexer_Reindex_SkipsExcludedAndHidden(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "visible.txt", "text")
	writeDoc(t, cfg.Root, ".hidden/secret.txt", "text")
	writeDoc(t, cfg.Root, "node_modules/dep.txt", "text")
	ix := newTestIndexer(t, cfg, store.NewMemoryStore())

	report, err := ix.Reindex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Count())
}

func TestIndexer_Reindex_OversizedFileIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "big.txt", "0123456789")
	writeDoc(t, cfg.Root, "small.txt", "ok")
	ix := newTestIndexer(t, cfg, store.NewMemoryStore(), extract.WithMaxFileSize(5))

	report, err := ix.Reindex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Count())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "big.txt", report.Skipped[0].Path)
	assert.Equal(t, siftErrors.ErrCodeFileTooLarge, report.Skipped[0].Code)
}

func TestIndexer_Reindex_ConcurrentCallsShareOneRun(t *testing.T) {
	// Given: an extractor that blocks until released
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "slow.txt", "slow")
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var once sync.Once
	ix := newTestIndexer(t, cfg, store.NewMemoryStore(), extract.WithExtractor(".txt",
		extract.ExtractorFunc(func(_ context.Context, data []byte) (string, error) {
			calls.Add(1)
			once.Do(func() { close(entered) })
			<-release
			return string(data), nil
		})))

	// When: a second Reindex starts while the first is in flight
	var wg sync.WaitGroup
	reports := make([]*Report, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[0], _ = ix.Reindex(context.Background())
	}()
	<-entered
	assert.True(t, ix.IsIndexing())
	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[1], _ = ix.Reindex(context.Background())
	}()
	// Give the second call time to join before releasing the first.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	// Then: both callers get the same report from one extraction
	require.NotNil(t, reports[0])
	assert.Same(t, reports[0], reports[1])
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, ix.IsIndexing())
}

func TestIndexer_Reindex_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "a.txt", "text")
	ix := newTestIndexer(t, cfg, store.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := ix.Reindex(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestIndexer_Reindex_StorageFailureOnClear(t *testing.T) {
	// Given: a store that is already closed
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "a.txt", "text")
	st := store.NewMemoryStore()
	require.NoError(t, st.Close())
	ix := newTestIndexer(t, cfg, st)

	// When: reindexing
	report, err := ix.Reindex(context.Background())

	// Then: the storage failure is the hard error
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, siftErrors.IsStorageFailure(err))
}

func TestIndexer_Reindex_StorageFailureOnUpsert(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeDoc(t, cfg.Root, name, "text")
	}
	st := &failingStore{ContentStore: store.NewMemoryStore()}
	st.allowed.Store(1)
	ix := newTestIndexer(t, cfg, st)

	report, err := ix.Reindex(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Equal(t, siftErrors.ErrCodeStorageFailure, siftErrors.GetCode(err))
}

func TestIndexer_Reindex_MissingRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Root = filepath.Join(cfg.Root, "does-not-exist")
	ix := newTestIndexer(t, cfg, store.NewMemoryStore())

	_, err := ix.Reindex(context.Background())

	require.Error(t, err)
	assert.Equal(t, siftErrors.ErrCodeIndexFailed, siftErrors.GetCode(err))
}

func TestIndexer_Reindex_LockedByAnotherProcess(t *testing.T) {
	// Given: the data dir lock is held elsewhere
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "a.txt", "text")
	other := NewFileLock(cfg.DataDir)
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = other.Unlock() }()
	st := store.NewMemoryStore()
	ix := newTestIndexer(t, cfg, st)

	// When: reindexing with no lock wait
	_, err = ix.Reindex(context.Background())

	// Then: the run is refused and the store is untouched
	require.Error(t, err)
	assert.Equal(t, siftErrors.ErrCodeIndexLocked, siftErrors.GetCode(err))
	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIndexer_OnComplete_AndRenderer(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "a.txt", "text")
	writeDoc(t, cfg.Root, "b.doc", "garbage")
	ix := newTestIndexer(t, cfg, store.NewMemoryStore())
	rec := &recordingRenderer{}
	ix.SetRenderer(rec)
	var hooked *Report
	ix.OnComplete(func(r *Report) { hooked = r })

	report, err := ix.Reindex(context.Background())

	require.NoError(t, err)
	assert.Same(t, report, hooked)
	require.NotNil(t, rec.complete)
	assert.Equal(t, 1, rec.complete.Indexed)
	assert.Equal(t, 1, rec.complete.Failed)
	assert.Equal(t, 1, rec.warnings)
	assert.Greater(t, rec.events, 2)
}

func TestIndexer_Status_ReportsCountsAndPersistedReport(t *testing.T) {
	// Given: a completed run
	cfg := testConfig(t)
	writeDoc(t, cfg.Root, "a.txt", "alpha")
	writeDoc(t, cfg.Root, "b.txt", "beta")
	st := store.NewMemoryStore()
	ix := newTestIndexer(t, cfg, st)

	before, err := ix.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, before.Documents)
	assert.Nil(t, before.LastReport)

	_, err = ix.Reindex(context.Background())
	require.NoError(t, err)

	// When: a fresh indexer reads status from the same data dir
	fresh := newTestIndexer(t, cfg, st)
	status, err := fresh.Status(context.Background())

	// Then: the persisted report is loaded
	require.NoError(t, err)
	assert.Equal(t, 2, status.Documents)
	assert.False(t, status.Indexing)
	require.NotNil(t, status.LastReport)
	assert.Equal(t, 2, status.LastReport.Indexed)
	assert.Equal(t, 2, status.LastReport.Summary().Scanned)
}

func TestIndexer_Extensions(t *testing.T) {
	ix := newTestIndexer(t, testConfig(t), store.NewMemoryStore())

	assert.Equal(t, []string{".doc", ".docx", ".pdf", ".rtf", ".txt", ".xls", ".xlsx"}, ix.Extensions())
}
