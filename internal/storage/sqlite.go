// Package storage provides SQLite implementations of the storage interfaces.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// dsnOptions enables WAL and a full fsync on every commit.
const dsnOptions = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

// openSQLite opens or creates a SQLite database at dbPath and runs schema.
// Parent directories are created if they do not exist.
func openSQLite(dbPath, schema string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

const entrySchema = `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dims INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

// SQLiteEntryStore implements EntryStore using SQLite.
type SQLiteEntryStore struct {
	db *sql.DB
}

// NewSQLiteEntryStore opens or creates the entry database at dbPath.
func NewSQLiteEntryStore(dbPath string) (*SQLiteEntryStore, error) {
	db, err := openSQLite(dbPath, entrySchema)
	if err != nil {
		return nil, err
	}
	return &SQLiteEntryStore{db: db}, nil
}

// ListIDs returns the IDs of all stored entries.
func (s *SQLiteEntryStore) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// InsertEntries inserts entries in a transaction, ignoring IDs that already exist.
func (s *SQLiteEntryStore) InsertEntries(ctx context.Context, entries []*models.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO entries (id, content, embedding, dims, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now()
	inserted := 0
	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return 0, fmt.Errorf("entry %s has no embedding", e.ID)
		}
		res, err := stmt.ExecContext(ctx, e.ID, e.Content, encodeVector(e.Embedding), len(e.Embedding), now)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			e.CreatedAt = now
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// LoadEntries returns all entries ordered by insertion.
func (s *SQLiteEntryStore) LoadEntries(ctx context.Context) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, embedding, created_at FROM entries ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetEntries returns entries for ids in the given order.
func (s *SQLiteEntryStore) GetEntries(ctx context.Context, ids []string) ([]*models.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, embedding, created_at FROM entries WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Entry, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]*models.Entry, 0, len(found))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
			delete(byID, id)
		}
	}
	return out, nil
}

func scanEntries(rows *sql.Rows) ([]*models.Entry, error) {
	var entries []*models.Entry
	for rows.Next() {
		var e models.Entry
		var blob []byte
		if err := rows.Scan(&e.ID, &e.Content, &blob, &e.CreatedAt); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.Embedding = vec
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountEntries returns the number of stored entries.
func (s *SQLiteEntryStore) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteEntryStore) Close() error {
	return s.db.Close()
}
