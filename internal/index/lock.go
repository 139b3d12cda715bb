package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
)

// LockFileName is the cross-process reindex lock inside the data directory.
const LockFileName = "index.lock"

// WatchLockFileName is held for as long as a watcher runs on the root.
const WatchLockFileName = "watch.lock"

// FileLock serializes reindex runs across processes sharing a data directory.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock at <dataDir>/index.lock.
func NewFileLock(dataDir string) *FileLock {
	return newLockAt(filepath.Join(dataDir, LockFileName))
}

// NewWatchLock creates the lock a running watcher holds at
// <dataDir>/watch.lock.
func NewWatchLock(dataDir string) *FileLock {
	return newLockAt(filepath.Join(dataDir, WatchLockFileName))
}

func newLockAt(path string) *FileLock {
	return &FileLock{
		path:  path,
		flock: flock.New(path),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Acquire retries TryLock with backoff for up to timeout. A lock still held
// by another process afterwards yields ERR_211_INDEX_LOCKED.
func (l *FileLock) Acquire(ctx context.Context, timeout time.Duration) error {
	return siftErrors.Retry(ctx, siftErrors.RetryConfigFor(timeout), func() error {
		ok, err := l.TryLock()
		if err != nil {
			return siftErrors.New(siftErrors.ErrCodeIndexFailed, "index lock unavailable", err).
				WithDetail("lock", l.path)
		}
		if !ok {
			return siftErrors.New(siftErrors.ErrCodeIndexLocked, "another docsift process is reindexing", nil).
				WithDetail("lock", l.path).
				WithSuggestion("wait for the other run to finish or raise index.lock_timeout")
		}
		return nil
	})
}

// Unlock releases the lock. Calling it on an unlocked FileLock is a no-op.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}

	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// HeldElsewhere reports whether another holder has the lock right now.
// A missing lock file or directory reports false.
func (l *FileLock) HeldElsewhere() bool {
	if l.locked {
		return false
	}
	if _, err := os.Stat(l.path); err != nil {
		return false
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = l.flock.Unlock()
		return false
	}
	return true
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked returns true if this FileLock holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.locked
}
