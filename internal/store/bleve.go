package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	// contentAnalyzerName splits on whitespace and lowercases, keeping
	// punctuation inside tokens so substrings stay reachable by wildcards.
	contentAnalyzerName = "docsift_content"

	blevePageSize = 200
)

// BleveStore keeps documents in a Bleve index. The index is a prefilter:
// every candidate it returns is checked with an exact folded substring
// test before being reported.
type BleveStore struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

var _ ContentStore = (*BleveStore)(nil)

// bleveDocument is the indexed form of a Document.
type bleveDocument struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	IndexedAt string `json:"indexed_at"`
}

// validateIndexIntegrity checks index_meta.json of an existing index.
// Returns nil if valid or absent.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// isCorruptionError reports whether a bleve.Open error means the index
// on disk is unusable.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		errors.Is(err, bleve.ErrorIndexMetaCorrupt)
}

// NewBleveStore opens (or creates) an index directory at path.
// An empty path creates an in-memory index.
func NewBleveStore(path string) (*BleveStore, error) {
	idx, err := openBleveIndex(path)
	if err != nil {
		return nil, storageError("open", err)
	}
	return &BleveStore{index: idx, path: path}, nil
}

func openBleveIndex(path string) (bleve.Index, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("create index mapping: %w", err)
	}
	if path == "" {
		return bleve.NewMemOnly(indexMapping)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	if validErr := validateIndexIntegrity(path); validErr != nil {
		slog.Warn("bleve_store_corrupted",
			slog.String("path", path),
			slog.String("error", validErr.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
		}
		slog.Info("bleve_store_cleared",
			slog.String("path", path),
			slog.String("reason", "corruption detected, please reindex"))
	}

	idx, err := bleve.Open(path)
	switch {
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		return bleve.New(path, indexMapping)
	case err != nil && isCorruptionError(err):
		slog.Warn("bleve_store_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("index corrupted, cannot clear: %w (original: %v)", removeErr, err)
		}
		return bleve.New(path, indexMapping)
	}
	return idx, err
}

// createIndexMapping indexes only the content field; name and timestamp are
// stored for retrieval.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(contentAnalyzerName, map[string]any{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("add custom analyzer: %w", err)
	}

	content := bleve.NewTextFieldMapping()
	content.Analyzer = contentAnalyzerName
	content.Store = true
	content.IncludeTermVectors = false

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content", content)
	doc.AddFieldMappingsAt("name", stored)
	doc.AddFieldMappingsAt("indexed_at", stored)

	indexMapping.DefaultMapping = doc
	indexMapping.DefaultAnalyzer = contentAnalyzerName
	return indexMapping, nil
}

// Clear implements ContentStore by recreating the index.
func (b *BleveStore) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return storageError("clear", errStoreClosed)
	}
	if err := b.index.Close(); err != nil {
		return storageError("clear", err)
	}
	if b.path != "" {
		if err := os.RemoveAll(b.path); err != nil {
			b.closed = true
			return storageError("clear", err)
		}
	}
	idx, err := openBleveIndex(b.path)
	if err != nil {
		b.closed = true
		return storageError("clear", err)
	}
	b.index = idx
	return nil
}

// Upsert implements ContentStore.
func (b *BleveStore) Upsert(_ context.Context, doc *Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return storageError("upsert", errStoreClosed)
	}
	err := b.index.Index(doc.Path, bleveDocument{
		Name:      doc.Name,
		Content:   doc.Content,
		IndexedAt: doc.IndexedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return storageError("upsert", fmt.Errorf("%s: %w", doc.Path, err))
	}
	return nil
}

// FindContaining implements ContentStore. Hits are fetched in path order a
// page at a time until limit verified matches are collected.
func (b *BleveStore) FindContaining(ctx context.Context, substr string, limit int) ([]*Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, storageError("find", errStoreClosed)
	}

	folded := Fold(substr)
	q := substringQuery(folded)
	if q == nil {
		return []*Document{}, nil
	}

	docs := []*Document{}
	for from := 0; ; from += blevePageSize {
		req := bleve.NewSearchRequestOptions(q, blevePageSize, from, false)
		req.Fields = []string{"name", "content", "indexed_at"}
		req.SortBy([]string{"_id"})

		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, storageError("find", err)
		}

		for _, hit := range res.Hits {
			doc := hitDocument(hit.ID, hit.Fields)
			if !containsFolded(doc.Content, folded) {
				continue
			}
			docs = append(docs, doc)
			if limit > 0 && len(docs) >= limit {
				return docs, nil
			}
		}

		if len(res.Hits) < blevePageSize {
			return docs, nil
		}
	}
}

// substringQuery builds a token-level superset of "contains folded".
// A single word may sit anywhere inside a token. With several words the
// first must end a token, the last must start one and the middle words
// must be whole tokens. Returns nil for a blank query.
func substringQuery(folded string) query.Query {
	words := strings.Fields(folded)
	switch len(words) {
	case 0:
		return nil
	case 1:
		return wildcard("*" + words[0] + "*")
	}

	parts := make([]query.Query, 0, len(words))
	parts = append(parts, wildcard("*"+words[0]))
	for _, w := range words[1 : len(words)-1] {
		tq := bleve.NewTermQuery(w)
		tq.SetField("content")
		parts = append(parts, tq)
	}
	parts = append(parts, wildcard(words[len(words)-1]+"*"))
	return bleve.NewConjunctionQuery(parts...)
}

func wildcard(pattern string) query.Query {
	wq := bleve.NewWildcardQuery(pattern)
	wq.SetField("content")
	return wq
}

func hitDocument(id string, fields map[string]any) *Document {
	doc := &Document{Path: id}
	if v, ok := fields["name"].(string); ok {
		doc.Name = v
	}
	if v, ok := fields["content"].(string); ok {
		doc.Content = v
	}
	if v, ok := fields["indexed_at"].(string); ok {
		doc.IndexedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return doc
}

// Count implements ContentStore.
func (b *BleveStore) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, storageError("count", errStoreClosed)
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, storageError("count", err)
	}
	return int(n), nil
}

// Close implements ContentStore.
func (b *BleveStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}
