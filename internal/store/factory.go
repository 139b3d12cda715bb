package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	siftErrors "github.com/Aman-CERP/docsift/internal/errors"
)

// Backend names a ContentStore implementation.
type Backend string

const (
	// BackendSQLite stores documents in SQLite (default).
	BackendSQLite Backend = "sqlite"

	// BackendBleve stores documents in a Bleve index used as a prefilter.
	BackendBleve Backend = "bleve"

	// BackendBadger stores documents in an embedded Badger database.
	BackendBadger Backend = "badger"

	// BackendMemory keeps documents in process memory only.
	BackendMemory Backend = "memory"
)

// Backends lists the accepted backend names.
func Backends() []Backend {
	return []Backend{BackendSQLite, BackendBleve, BackendBadger, BackendMemory}
}

var errStoreClosed = errors.New("store is closed")

func storageError(op string, err error) error {
	return siftErrors.StorageError(op, err)
}

// Open creates the ContentStore for backend under dataDir.
// An empty dataDir opens the in-memory variant of the backend.
//
// backend options:
//   - "sqlite" (default): <dataDir>/content.db
//   - "bleve": <dataDir>/content.bleve
//   - "badger": <dataDir>/content.badger
//   - "memory": nothing on disk
func Open(backend, dataDir string) (ContentStore, error) {
	path := Path(dataDir, backend)

	switch Backend(backend) {
	case BackendSQLite, "":
		return NewSQLiteStore(path)
	case BackendBleve:
		return NewBleveStore(path)
	case BackendBadger:
		return NewBadgerStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, siftErrors.ConfigError(
			fmt.Sprintf("unknown store backend: %s (valid options: sqlite, bleve, badger, memory)", backend), nil)
	}
}

// Path returns where backend keeps its data under dataDir, or "" for
// in-memory stores.
func Path(dataDir, backend string) string {
	if dataDir == "" {
		return ""
	}
	switch Backend(backend) {
	case BackendBleve:
		return filepath.Join(dataDir, "content.bleve")
	case BackendBadger:
		return filepath.Join(dataDir, "content.badger")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(dataDir, "content.db")
	}
}

// Detect reports which backend already has data under dataDir, or "" if
// none does.
func Detect(dataDir string) Backend {
	if fileExists(Path(dataDir, string(BackendSQLite))) {
		return BackendSQLite
	}
	if dirExists(Path(dataDir, string(BackendBleve))) {
		return BackendBleve
	}
	if dirExists(Path(dataDir, string(BackendBadger))) {
		return BackendBadger
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
