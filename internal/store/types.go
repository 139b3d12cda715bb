// Package store persists extracted document text and answers
// case-insensitive substring queries over it.
//
// Every backend implements ContentStore. Failures are returned as
// ERR_210_STORAGE_FAILURE so callers can abort the enclosing operation.
package store

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// Document is the indexed content of one file. Path is its unique key.
type Document struct {
	Path      string    `json:"path"` // Relative to the document root, slash-separated
	Name      string    `json:"name"` // Display name
	Content   string    `json:"content"`
	IndexedAt time.Time `json:"indexed_at"`
}

// ContentStore is the persistence boundary shared by the indexer and search.
// Only the indexer calls Clear and Upsert; search only reads.
type ContentStore interface {
	// Clear removes every document.
	Clear(ctx context.Context) error

	// Upsert inserts doc or replaces the document stored under doc.Path.
	Upsert(ctx context.Context, doc *Document) error

	// FindContaining returns documents whose content contains substr,
	// ignoring case, ordered by path. limit <= 0 means no limit.
	FindContaining(ctx context.Context, substr string, limit int) ([]*Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases the backend. Close is idempotent.
	Close() error
}

// Fold lower-cases s rune by rune. The result has the same number of runes
// as s, so rune offsets found in the folded text apply to the original.
func Fold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// containsFolded reports whether content contains the already-folded needle.
func containsFolded(content, foldedNeedle string) bool {
	return strings.Contains(Fold(content), foldedNeedle)
}
