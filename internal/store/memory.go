package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map-backed ContentStore for tests and throwaway runs.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]Document
	closed bool
}

var _ ContentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// Clear implements ContentStore.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return storageError("clear", errStoreClosed)
	}
	m.docs = make(map[string]Document)
	return nil
}

// Upsert implements ContentStore.
func (m *MemoryStore) Upsert(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return storageError("upsert", errStoreClosed)
	}
	m.docs[doc.Path] = *doc
	return nil
}

// FindContaining implements ContentStore.
func (m *MemoryStore) FindContaining(_ context.Context, substr string, limit int) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, storageError("find", errStoreClosed)
	}

	docs := []*Document{}
	if substr == "" {
		return docs, nil
	}

	paths := make([]string, 0, len(m.docs))
	for path := range m.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	folded := Fold(substr)
	for _, path := range paths {
		doc := m.docs[path]
		if !containsFolded(doc.Content, folded) {
			continue
		}
		docs = append(docs, &doc)
		if limit > 0 && len(docs) >= limit {
			break
		}
	}
	return docs, nil
}

// Count implements ContentStore.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, storageError("count", errStoreClosed)
	}
	return len(m.docs), nil
}

// Close implements ContentStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
