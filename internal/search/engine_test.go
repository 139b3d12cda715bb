package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/store"
)

var testExtensions = []string{".doc", ".docx", ".pdf", ".rtf", ".txt", ".xls", ".xlsx"}

func testEngine(t *testing.T, root string, st store.ContentStore, mutate ...func(*Config)) *Engine {
	t.Helper()
	cfg := Config{Root: root, Extensions: testExtensions}
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := NewEngine(cfg, st)
	require.NoError(t, err)
	return e
}

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func index(t *testing.T, st store.ContentStore, rel, content string) {
	t.Helper()
	require.NoError(t, st.Upsert(context.Background(), &store.Document{
		Path:      rel,
		Name:      filepath.Base(rel),
		Content:   content,
		IndexedAt: time.Now(),
	}))
}

func TestNewEngine_RequiresStoreAndRoot(t *testing.T) {
	_, err := NewEngine(Config{Root: t.TempDir()}, nil)
	assert.Error(t, err)

	_, err = NewEngine(Config{}, store.NewMemoryStore())
	assert.Error(t, err)
}

func TestEngine_Search_ShortQueryTouchesNothing(t *testing.T) {
	// Given: a closed store and a root that does not exist
	st := store.NewMemoryStore()
	require.NoError(t, st.Close())
	e := testEngine(t, filepath.Join(t.TempDir(), "missing"), st)

	for _, q := range []string{"", "a", "  a  ", "\té\n"} {
		t.Run(fmt.Sprintf("%q", q), func(t *testing.T) {
			// When: searching with fewer than two characters
			resp, err := e.Search(context.Background(), q, 50)

			// Then: an empty result and no error
			require.NoError(t, err)
			assert.Empty(t, resp.Results)
			assert.NotNil(t, resp.Results)
			assert.Zero(t, resp.Total)
		})
	}
}

func TestEngine_Search_FilenameAndContentPromoteToBoth(t *testing.T) {
	// Given: annual_report.pdf on disk with indexed text mentioning report
	root := t.TempDir()
	touch(t, root, "finance/annual_report.pdf")
	st := store.NewMemoryStore()
	index(t, st, "finance/annual_report.pdf", "This report covers the fiscal year.")
	e := testEngine(t, root, st)

	// When: searching
	resp, err := e.Search(context.Background(), "report", 50)

	// Then: exactly one result, classified both, with a snippet
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, "finance/annual_report.pdf", r.Path)
	assert.Equal(t, "annual_report.pdf", r.Name)
	assert.Equal(t, MatchBoth, r.MatchType)
	assert.Equal(t, "...This report covers the fiscal year....", r.Snippet)
	assert.Equal(t, 1, resp.Total)
}

func TestResult_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal([]*Result{
		{Path: "a/report.pdf", Name: "report.pdf", Snippet: "...the report...", MatchType: MatchBoth},
		{Path: "b/report.txt", Name: "report.txt", MatchType: MatchFilename},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"path": "a/report.pdf", "name": "report.pdf", "contentSnippet": "...the report...", "matchType": "both"},
		{"path": "b/report.txt", "name": "report.txt", "matchType": "filename"}
	]`, string(data))
}

func TestEngine_Search_ClassifiesEachPhase(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Budget.XLSX")
	touch(t, root, "notes/budget-draft.rtf")
	touch(t, root, "budget.zip")
	st := store.NewMemoryStore()
	index(t, st, "minutes.docx", "We discussed the BUDGET at length.")
	e := testEngine(t, root, st)

	resp, err := e.Search(context.Background(), "budget", 0)

	require.NoError(t, err)
	require.Len(t, resp.Results, 3, "unsupported budget.zip is not a filename match")
	assert.Equal(t, &Result{Path: "Budget.XLSX", Name: "Budget.XLSX", MatchType: MatchFilename}, resp.Results[0])
	assert.Equal(t, &Result{Path: "notes/budget-draft.rtf", Name: "budget-draft.rtf", MatchType: MatchFilename}, resp.Results[1])
	assert.Equal(t, "minutes.docx", resp.Results[2].Path)
	assert.Equal(t, MatchContent, resp.Results[2].MatchType)
	assert.Contains(t, resp.Results[2].Snippet, "BUDGET")
}

func TestEngine_Search_LimitTruncatesAndTotalMatches(t *testing.T) {
	// Given: three documents containing "neural"
	root := t.TempDir()
	st := store.NewMemoryStore()
	for i := range 3 {
		index(t, st, fmt.Sprintf("paper%d.pdf", i), "a neural approach")
	}
	e := testEngine(t, root, st)

	// When: searching with limit 1
	resp, err := e.Search(context.Background(), "neural", 1)

	// Then: one result, and total reflects the truncated list
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 1, resp.Total)
}

func TestEngine_Search_LimitAppliesAfterMerge(t *testing.T) {
	root := t.TempDir()
	for i := range 4 {
		touch(t, root, fmt.Sprintf("neural-%d.txt", i))
	}
	st := store.NewMemoryStore()
	index(t, st, "zz.txt", "neural")
	e := testEngine(t, root, st)

	resp, err := e.Search(context.Background(), "neural", 3)

	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	for _, r := range resp.Results {
		assert.Equal(t, MatchFilename, r.MatchType, "filename results come first")
	}
}

func TestEngine_Search_LimitDefaultAndClamp(t *testing.T) {
	root := t.TempDir()
	st := store.NewMemoryStore()
	for i := range 12 {
		index(t, st, fmt.Sprintf("doc%02d.txt", i), "shared term")
	}
	e := testEngine(t, root, st, func(c *Config) {
		c.DefaultLimit = 5
		c.MaxLimit = 8
	})

	resp, err := e.Search(context.Background(), "shared", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)

	resp, err = e.Search(context.Background(), "shared", 100)
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Total)
}

func TestEngine_Search_TrimsAndFoldsQuery(t *testing.T) {
	root := t.TempDir()
	st := store.NewMemoryStore()
	index(t, st, "ru.txt", "ПРИВЕТ мир")
	e := testEngine(t, root, st)

	resp, err := e.Search(context.Background(), "  привет  ", 10)

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "...ПРИВЕТ мир...", resp.Results[0].Snippet)
}

func TestEngine_Search_StorageFailure(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Close())
	e := testEngine(t, t.TempDir(), st)

	resp, err := e.Search(context.Background(), "anything", 10)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, siftErrors.ErrCodeStorageFailure, siftErrors.GetCode(err))
}

func TestEngine_Search_MissingRoot(t *testing.T) {
	e := testEngine(t, filepath.Join(t.TempDir(), "gone"), store.NewMemoryStore())

	_, err := e.Search(context.Background(), "anything", 10)

	require.Error(t, err)
	assert.Equal(t, siftErrors.ErrCodeSearchFailed, siftErrors.GetCode(err))
}

func TestEngine_Search_CacheAndInvalidate(t *testing.T) {
	// Given: a cached engine and one indexed document
	root := t.TempDir()
	st := store.NewMemoryStore()
	index(t, st, "a.txt", "cached text")
	e := testEngine(t, root, st, func(c *Config) {
		c.CacheSize = 8
		c.CacheTTL = time.Minute
	})

	first, err := e.Search(context.Background(), "cached", 10)
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)

	// When: the store changes without invalidation
	index(t, st, "b.txt", "more cached text")
	stale, err := e.Search(context.Background(), "CACHED", 10)
	require.NoError(t, err)

	// Then: the cached response is served until Invalidate
	assert.Equal(t, 1, stale.Total)
	e.Invalidate()
	fresh, err := e.Search(context.Background(), "cached", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Total)
}

func TestEngine_Search_CacheExpires(t *testing.T) {
	// Given: a short-lived cache and a cached filename-only response
	root := t.TempDir()
	touch(t, root, "budget.txt")
	e := testEngine(t, root, store.NewMemoryStore(), func(c *Config) {
		c.CacheSize = 8
		c.CacheTTL = 50 * time.Millisecond
	})
	first, err := e.Search(context.Background(), "budget", 10)
	require.NoError(t, err)
	require.Equal(t, 1, first.Total)

	// When: a file appears on disk and nothing invalidates the cache
	touch(t, root, "budget_2025.txt")

	// Then: the new file is found once the cached response expires
	assert.Eventually(t, func() bool {
		resp, err := e.Search(context.Background(), "budget", 10)
		return err == nil && resp.Total == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestEngine_Search_CancelledContext(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "report.pdf")
	e := testEngine(t, root, store.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, "report", 10)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Search_SnippetRadiusFromConfig(t *testing.T) {
	root := t.TempDir()
	st := store.NewMemoryStore()
	index(t, st, "a.txt", strings.Repeat("x", 20)+"needle"+strings.Repeat("y", 20))
	e := testEngine(t, root, st, func(c *Config) { c.SnippetRadius = 3 })

	resp, err := e.Search(context.Background(), "needle", 10)

	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "...xxxneedleyyy...", resp.Results[0].Snippet)
}
