package watcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
	"github.com/Aman-CERP/docsift/internal/index"
)

// fakeWatcher feeds batches directly.
type fakeWatcher struct {
	events chan []FileEvent
	errs   chan error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan []FileEvent, 4), errs: make(chan error, 4)}
}

func (f *fakeWatcher) Start(context.Context, string) error { return nil }
func (f *fakeWatcher) Stop() error                         { return nil }
func (f *fakeWatcher) Events() <-chan []FileEvent          { return f.events }
func (f *fakeWatcher) Errors() <-chan error                { return f.errs }

type fakeReindexer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeReindexer) Reindex(context.Context) (*index.Report, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &index.Report{Indexed: 3}, nil
}

func TestAutoReindexer_OneReindexPerBatch(t *testing.T) {
	// Given: two batches followed by watcher shutdown
	w := newFakeWatcher()
	r := &fakeReindexer{}
	w.events <- []FileEvent{{Path: "a.pdf"}, {Path: "b.pdf"}}
	w.errs <- errors.New("transient inotify error")
	w.events <- []FileEvent{{Path: ".docsift.yaml", Operation: OpConfigChange}}
	close(w.events)

	// When: running
	err := NewAutoReindexer(w, r, nil).Run(context.Background())

	// Then: each batch triggered exactly one reindex
	require.NoError(t, err)
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestAutoReindexer_LockErrorsAreNotFatal(t *testing.T) {
	w := newFakeWatcher()
	r := &fakeReindexer{err: siftErrors.New(siftErrors.ErrCodeIndexLocked, "locked", nil)}
	w.events <- []FileEvent{{Path: "a.pdf"}}
	w.events <- []FileEvent{{Path: "b.pdf"}}
	close(w.events)

	err := NewAutoReindexer(w, r, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestAutoReindexer_StorageFailureStops(t *testing.T) {
	w := newFakeWatcher()
	r := &fakeReindexer{err: siftErrors.StorageError("clear", errors.New("disk gone"))}
	w.events <- []FileEvent{{Path: "a.pdf"}}
	w.events <- []FileEvent{{Path: "b.pdf"}}

	err := NewAutoReindexer(w, r, nil).Run(context.Background())

	require.Error(t, err)
	assert.True(t, siftErrors.IsStorageFailure(err))
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestAutoReindexer_StopsOnContextCancel(t *testing.T) {
	w := newFakeWatcher()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewAutoReindexer(w, &fakeReindexer{}, nil).Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
