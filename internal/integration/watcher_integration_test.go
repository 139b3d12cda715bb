package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsift/internal/logging"
	"github.com/Aman-CERP/docsift/internal/watcher"
)

// TestWatch_NewDocumentBecomesSearchable drives the watcher, the
// auto-reindexer and the search engine together.
func TestWatch_NewDocumentBecomesSearchable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: an indexed root with a polling watcher and auto-reindex running
	root := newCorpus(t)
	p := newPipeline(t, root, "sqlite")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := p.indexer.Reindex(ctx)
	require.NoError(t, err)

	opts := watcher.OptionsFrom(p.cfg, p.indexer.Extensions())
	opts.ForcePolling = true
	opts.PollInterval = 100 * time.Millisecond
	opts.DebounceWindow = 100 * time.Millisecond

	w, err := watcher.NewHybridWatcher(opts, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx, root))
	defer func() { _ = w.Stop() }()

	runDone := make(chan error, 1)
	go func() { runDone <- watcher.NewAutoReindexer(w, p.indexer, logging.Discard()).Run(ctx) }()

	// When: a new document appears
	time.Sleep(200 * time.Millisecond)
	writeFile(t, root, "reports/incident.txt", "Incident review for the outage on Tuesday.")

	// Then: it becomes searchable without a manual reindex
	assert.Eventually(t, func() bool {
		resp, err := p.engine.Search(ctx, "outage", 0)
		return err == nil && resp.Total == 1
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-reindexer did not stop")
	}
}

// TestWatch_IgnoresUnsupportedFiles checks that an image write does not
// trigger a reindex.
func TestWatch_IgnoresUnsupportedFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	root := newCorpus(t)
	p := newPipeline(t, root, "memory")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := watcher.OptionsFrom(p.cfg, p.indexer.Extensions())
	opts.ForcePolling = true
	opts.PollInterval = 100 * time.Millisecond
	opts.DebounceWindow = 100 * time.Millisecond

	w, err := watcher.NewHybridWatcher(opts, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx, root))
	defer func() { _ = w.Stop() }()

	time.Sleep(200 * time.Millisecond)
	writeFile(t, root, "photo.jpg", "\xff\xd8\xff")

	select {
	case batch := <-w.Events():
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(600 * time.Millisecond):
	}
}
