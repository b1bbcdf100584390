package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with catalog-specific methods.
type DB struct {
	*sql.DB
}

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// dsn builds the modernc connection string for path. ":memory:" selects a
// private in-memory database.
func dsn(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Open opens the SQLite catalog database at path, creating its parent
// directory if needed.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}
	return &DB{DB: sqlDB}, nil
}

// OpenAndInit opens the database and creates any missing tables.
func OpenAndInit(ctx context.Context, path string) (*DB, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := InitSchema(ctx, d.DB); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

// InTransaction runs fn in a transaction, committing when fn succeeds and
// rolling back otherwise.
func (db *DB) InTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetSyncMetadata returns the value stored under key, or "" if none is.
func (db *DB) GetSyncMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM sync_metadata WHERE key = ?`, key).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("reading sync metadata %s: %w", key, err)
	}
	return value, nil
}

// SetSyncMetadata stores value under key.
func (db *DB) SetSyncMetadata(ctx context.Context, key, value string) error {
	return setSyncMetadata(ctx, db, key, value)
}

// writeSyncMetadata stores every entry of meta, in key order.
func writeSyncMetadata(ctx context.Context, ex execer, meta map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(meta)) {
		if err := setSyncMetadata(ctx, ex, key, meta[key]); err != nil {
			return err
		}
	}
	return nil
}

func setSyncMetadata(ctx context.Context, ex execer, key, value string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO sync_metadata (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing sync metadata %s: %w", key, err)
	}
	return nil
}
