package kvstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps each slot in save_slots and appends one save_events row per
// put or delete, giving a queryable history of a slot.
type SQLite struct {
	db *sql.DB
}

// SlotEvent is one row of the save_events audit table.
type SlotEvent struct {
	Key    string
	Kind   string // "put" | "delete"
	Size   int
	SHA256 string
	At     time.Time
}

func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS save_slots (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			sha256 TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS save_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL,
			kind TEXT NOT NULL,
			size INTEGER NOT NULL,
			sha256 TEXT NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_save_events_key ON save_events(key, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Driver() Driver { return DriverSQLite }

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM save_slots WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLite) Put(ctx context.Context, key string, val []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	sum := sha256.Sum256(val)
	digest := hex.EncodeToString(sum[:])
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO save_slots(key, value, sha256, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, sha256 = excluded.sha256, updated_at = excluded.updated_at`,
		key, val, digest, now); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO save_events(key, kind, size, sha256, at) VALUES(?, 'put', ?, ?, ?)`,
		key, len(val), digest, now); err != nil {
		return fmt.Errorf("put %s: audit: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.ExecContext(ctx, `DELETE FROM save_slots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO save_events(key, kind, size, sha256, at) VALUES(?, 'delete', 0, '', ?)`,
			key, now); err != nil {
			return fmt.Errorf("delete %s: audit: %w", key, err)
		}
	}
	return tx.Commit()
}

// Events returns the audit trail for key, oldest first.
func (s *SQLite) Events(ctx context.Context, key string) ([]SlotEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, kind, size, sha256, at FROM save_events WHERE key = ? ORDER BY id`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SlotEvent
	for rows.Next() {
		var ev SlotEvent
		var at string
		if err := rows.Scan(&ev.Key, &ev.Kind, &ev.Size, &ev.SHA256, &at); err != nil {
			return nil, err
		}
		ev.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
