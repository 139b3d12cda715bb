package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// documentPrefix namespaces document keys: "doc:" + path. Badger iterates
// keys in byte order, so prefix scans come back sorted by path.
const documentPrefix = "doc:"

// BadgerStore keeps documents as JSON values in an embedded Badger database.
type BadgerStore struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

var _ ContentStore = (*BadgerStore)(nil)

// badgerLoggerAdapter routes Badger's logger to slog.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// NewBadgerStore opens (or creates) a Badger directory at dir.
// An empty dir opens an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storageError("open", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, storageError("open", err)
		}
		if !info.IsDir() {
			return nil, storageError("open", fmt.Errorf("%s is not a directory", dir))
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, storageError("open", err)
	}
	return &BadgerStore{db: db}, nil
}

func documentKey(path string) []byte {
	return []byte(documentPrefix + path)
}

// Clear implements ContentStore.
func (b *BadgerStore) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return storageError("clear", errStoreClosed)
	}
	if err := b.db.DropPrefix([]byte(documentPrefix)); err != nil {
		return storageError("clear", err)
	}
	return nil
}

// Upsert implements ContentStore.
func (b *BadgerStore) Upsert(_ context.Context, doc *Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return storageError("upsert", errStoreClosed)
	}

	value, err := json.Marshal(doc)
	if err != nil {
		return storageError("upsert", fmt.Errorf("encode %s: %w", doc.Path, err))
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(doc.Path), value)
	})
	if err != nil {
		return storageError("upsert", fmt.Errorf("%s: %w", doc.Path, err))
	}
	return nil
}

// FindContaining implements ContentStore with a full prefix scan.
func (b *BadgerStore) FindContaining(ctx context.Context, substr string, limit int) ([]*Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, storageError("find", errStoreClosed)
	}

	docs := []*Document{}
	if substr == "" {
		return docs, nil
	}
	folded := Fold(substr)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc Document
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if !containsFolded(doc.Content, folded) {
				continue
			}
			docs = append(docs, &doc)
			if limit > 0 && len(docs) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageError("find", err)
	}
	return docs, nil
}

// Count implements ContentStore.
func (b *BadgerStore) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, storageError("count", errStoreClosed)
	}

	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, storageError("count", err)
	}
	return count, nil
}

// Close implements ContentStore.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
