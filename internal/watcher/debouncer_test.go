package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case events := <-d.Output():
		return events
	case <-time.After(timeout):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(50*time.Millisecond, nil)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "report.pdf", Operation: OpCreate, Timestamp: time.Now()})

	// Then: it arrives after the window
	events := receiveBatch(t, d, 500*time.Millisecond)
	require.Len(t, events, 1)
	assert.Equal(t, "report.pdf", events[0].Path)
	assert.Equal(t, OpCreate, events[0].Operation)
}

func TestDebouncer_BurstBecomesOneSortedBatch(t *testing.T) {
	d := NewDebouncer(80*time.Millisecond, nil)
	defer d.Stop()

	for _, p := range []string{"c.txt", "a.docx", "b.xlsx", "a.docx"} {
		d.Add(FileEvent{Path: p, Operation: OpModify})
		time.Sleep(10 * time.Millisecond)
	}

	events := receiveBatch(t, d, time.Second)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"a.docx", "b.xlsx", "c.txt"}, []string{events[0].Path, events[1].Path, events[2].Path})
}

func TestDebouncer_CreateThenDelete_NoEvent(t *testing.T) {
	// Given: a debouncer
	d := NewDebouncer(50*time.Millisecond, nil)
	defer d.Stop()

	// When: CREATE then DELETE for the same file
	d.Add(FileEvent{Path: "~lock.doc", Operation: OpCreate})
	d.Add(FileEvent{Path: "~lock.doc", Operation: OpDelete})

	// Then: nothing is emitted
	select {
	case events := <-d.Output():
		t.Fatalf("unexpected batch: %v", events)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name  string
		first Operation
		next  Operation
		want  Operation
		keep  bool
	}{
		{"create+modify", OpCreate, OpModify, OpCreate, true},
		{"create+delete", OpCreate, OpDelete, 0, false},
		{"modify+delete", OpModify, OpDelete, OpDelete, true},
		{"delete+create", OpDelete, OpCreate, OpModify, true},
		{"modify+modify", OpModify, OpModify, OpModify, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := &pendingEvent{event: FileEvent{Path: "x.pdf", Operation: tt.first}, firstOp: tt.first}

			merged, keep := coalesce(existing, FileEvent{Path: "x.pdf", Operation: tt.next})

			assert.Equal(t, tt.keep, keep)
			if keep {
				assert.Equal(t, tt.want, merged.Operation)
			}
		})
	}
}

func TestDebouncer_StopIsIdempotentAndDropsPending(t *testing.T) {
	d := NewDebouncer(time.Hour, nil)
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.txt", Operation: OpCreate})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
