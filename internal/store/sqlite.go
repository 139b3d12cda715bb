package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore keeps documents in a single SQLite table. A folded copy of the
// content is stored alongside it so matching does not depend on SQLite's
// ASCII-only lower().
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ ContentStore = (*SQLiteStore)(nil)

// validateSQLiteIntegrity checks an existing database before opening it.
// Returns nil if valid or absent.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name='documents'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("table 'documents' missing")
	}

	return nil
}

// NewSQLiteStore opens (or creates) the store at path.
// An empty path opens an in-memory database for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storageError("open", fmt.Errorf("create directory %s: %w", dir, err))
		}

		// The store is rebuilt by every reindex, so a damaged file is dropped.
		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_store_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, storageError("open",
					fmt.Errorf("store corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr))
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("sqlite_store_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageError("open", err)
	}

	// One connection: writes are serialized and :memory: stays a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, storageError("open", fmt.Errorf("set pragma: %w", err))
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, storageError("open", fmt.Errorf("initialize schema: %w", err))
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS documents (
		path           TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		content        TEXT NOT NULL,
		content_folded TEXT NOT NULL,
		indexed_at     INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Clear implements ContentStore.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storageError("clear", errStoreClosed)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return storageError("clear", err)
	}
	return nil
}

// Upsert implements ContentStore.
func (s *SQLiteStore) Upsert(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storageError("upsert", errStoreClosed)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, name, content, content_folded, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			content = excluded.content,
			content_folded = excluded.content_folded,
			indexed_at = excluded.indexed_at`,
		doc.Path, doc.Name, doc.Content, Fold(doc.Content), doc.IndexedAt.UnixMilli())
	if err != nil {
		return storageError("upsert", fmt.Errorf("%s: %w", doc.Path, err))
	}
	return nil
}

// FindContaining implements ContentStore.
func (s *SQLiteStore) FindContaining(ctx context.Context, substr string, limit int) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storageError("find", errStoreClosed)
	}
	if substr == "" {
		return []*Document{}, nil
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, content, indexed_at
		FROM documents
		WHERE instr(content_folded, ?) > 0
		ORDER BY path
		LIMIT ?`, Fold(substr), limit)
	if err != nil {
		return nil, storageError("find", err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		var (
			doc       Document
			indexedAt int64
		)
		if err := rows.Scan(&doc.Path, &doc.Name, &doc.Content, &indexedAt); err != nil {
			return nil, storageError("find", fmt.Errorf("scan row: %w", err))
		}
		doc.IndexedAt = time.UnixMilli(indexedAt)
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("find", err)
	}
	return docs, nil
}

// Count implements ContentStore.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, storageError("count", errStoreClosed)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, storageError("count", err)
	}
	return count, nil
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}
