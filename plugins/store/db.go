package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is the PRAGMA user_version the database is migrated to.
const schemaVersion = 1

// migrations maps a target schema version to the statements that reach it
// from the version directly below.
var migrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS kv (
			store      TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (store, key)
		)`,
	},
}

// database wraps the single SQLite handle backing all named stores.
type database struct {
	sqlDB *sql.DB
}

// openDatabase opens (or creates) the store database and migrates its schema.
func openDatabase(path string) (*database, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	d := &database{sqlDB: sqlDB}
	if err := d.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return d, nil
}

// migrate walks the schema forward one version at a time. Each step runs in
// its own transaction and bumps PRAGMA user_version on success.
func (d *database) migrate() error {
	var version int
	if err := d.sqlDB.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for ; version < schemaVersion; version++ {
		next := version + 1
		stmts, ok := migrations[next]
		if !ok {
			return fmt.Errorf("no migration to schema version %d", next)
		}

		tx, err := d.sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration to version %d: %w", next, err)
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("exec migration to version %d: %w", next, err)
			}
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema version %d: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration to version %d: %w", next, err)
		}
	}
	return nil
}

func (d *database) get(ctx context.Context, store, key string) (json.RawMessage, bool, error) {
	var value []byte
	row := d.sqlDB.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE store = ? AND key = ?", store, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (d *database) set(ctx context.Context, store, key string, value []byte) error {
	_, err := d.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (store, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (store, key) DO UPDATE SET
		   value = excluded.value, updated_at = excluded.updated_at`,
		store, key, value, time.Now().UTC().UnixMilli())
	return err
}

func (d *database) delete(ctx context.Context, store, key string) (bool, error) {
	res, err := d.sqlDB.ExecContext(ctx,
		"DELETE FROM kv WHERE store = ? AND key = ?", store, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *database) clear(ctx context.Context, store string) error {
	_, err := d.sqlDB.ExecContext(ctx, "DELETE FROM kv WHERE store = ?", store)
	return err
}

func (d *database) keys(ctx context.Context, store string) ([]string, error) {
	rows, err := d.sqlDB.QueryContext(ctx,
		"SELECT key FROM kv WHERE store = ? ORDER BY key", store)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (d *database) entries(ctx context.Context, store string) (map[string]json.RawMessage, error) {
	rows, err := d.sqlDB.QueryContext(ctx,
		"SELECT key, value FROM kv WHERE store = ?", store)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		entries[key] = value
	}
	return entries, rows.Err()
}

func (d *database) length(ctx context.Context, store string) (int64, error) {
	var n int64
	err := d.sqlDB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM kv WHERE store = ?", store).Scan(&n)
	return n, err
}

// checkpoint flushes the WAL back into the main database file.
func (d *database) checkpoint(ctx context.Context) error {
	_, err := d.sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

func (d *database) close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}
