package watermark

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const pragmaTimeout = 5 * time.Second

// SQLiteStore keeps the table in a SQLite database.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path and ensures
// the watermarks table exists. An empty database is an empty table.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, storeError("open", path, fmt.Errorf("sqlite path is empty")) //nolint:err113 // one-off message
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, storeError("open", path, fmt.Errorf("create sqlite directory: %w", err))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeError("open", path, err)
	}

	pctx, cancel := context.WithTimeout(ctx, pragmaTimeout)
	defer cancel()

	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, storeError("open", path, fmt.Errorf("set busy_timeout: %w", err))
	}

	if err := bootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, storeError("open", path, err)
	}

	return &SQLiteStore{path: path, db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads every row. Rows with malformed timestamps are skipped.
func (s *SQLiteStore) Load(ctx context.Context) (Watermarks, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT folder, synced_at FROM watermarks ORDER BY folder;`)
	if err != nil {
		return nil, storeError("query", s.path, err)
	}

	defer func() {
		_ = rows.Close()
	}()

	table := Watermarks{}

	for rows.Next() {
		var (
			folder string
			raw    sql.NullString
		)

		if err := rows.Scan(&folder, &raw); err != nil {
			return nil, storeError("scan", s.path, err)
		}

		if !raw.Valid || raw.String == "" {
			table[folder] = Epoch()
			continue
		}

		t, err := ParseTime(raw.String)
		if err != nil {
			continue
		}

		table[folder] = t
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("query", s.path, err)
	}

	return table, nil
}

// Location returns the database path.
func (s *SQLiteStore) Location() string {
	return s.path
}

// Save upserts every folder in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, table Watermarks) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin", s.path, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, folder := range table.Folders() {
		value, err := FormatTime(table[folder])
		if err != nil {
			return storeError("encode", s.path, fmt.Errorf("folder %q: %w", folder, err))
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO watermarks(folder, synced_at, updated_at) VALUES(?, ?, ?)
ON CONFLICT(folder) DO UPDATE SET synced_at = excluded.synced_at, updated_at = excluded.updated_at;`,
			folder, value, now)
		if err != nil {
			return storeError("upsert", s.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit", s.path, err)
	}

	return nil
}

func bootstrapSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS watermarks (
  folder     TEXT PRIMARY KEY,
  synced_at  TEXT,
  updated_at TEXT
);`)
	if err != nil {
		return fmt.Errorf("bootstrap sqlite: %w", err)
	}

	return nil
}
