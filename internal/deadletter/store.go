package deadletter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"logship/internal/backend"
)

const schema = `
CREATE TABLE IF NOT EXISTS discarded_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    discarded_at TEXT NOT NULL,
    category TEXT NOT NULL,
    target_index TEXT NOT NULL,
    reason TEXT NOT NULL,
    document TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_discarded_category ON discarded_entries(category);
`

// Store journals discarded entries in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is a journaled record as read back from the store.
type Entry struct {
	ID          int64
	DiscardedAt time.Time
	Category    string
	TargetIndex string
	Reason      string
	Document    map[string]any
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Record journals every document of a discarded batch.
func (s *Store) Record(ctx context.Context, category string, docs []backend.Document, reason string) error {
	if s == nil || s.db == nil || len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO discarded_entries (discarded_at, category, target_index, reason, document)
         VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare journal insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, doc := range docs {
		encoded, err := json.Marshal(doc.Source)
		if err != nil {
			// An unencodable document still deserves a journal row.
			encoded = []byte(fmt.Sprintf(`{"encode_error":%q}`, err.Error()))
		}
		if _, err := stmt.ExecContext(ctx, now, category, doc.Index, reason, string(encoded)); err != nil {
			return fmt.Errorf("insert journal row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal transaction: %w", err)
	}
	return nil
}

// Count returns the number of journaled entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM discarded_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count journal rows: %w", err)
	}
	return count, nil
}

// Recent returns the most recently journaled entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, discarded_at, category, target_index, reason, document
         FROM discarded_entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal rows: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var discardedAt, document string
		if err := rows.Scan(&entry.ID, &discardedAt, &entry.Category, &entry.TargetIndex, &entry.Reason, &document); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, discardedAt); err == nil {
			entry.DiscardedAt = ts
		}
		if err := json.Unmarshal([]byte(document), &entry.Document); err != nil {
			entry.Document = map[string]any{"raw": document}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
