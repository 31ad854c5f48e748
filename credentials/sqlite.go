package credentials

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists credentials in a local SQLite file, scoped to the
// machine running the CLI or server.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing credentials db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
  kind TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at_unix_ms INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, kind Kind) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE kind = ?`, string(kind)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set upserts value for kind; an empty value deletes the row.
func (s *SQLiteStore) Set(ctx context.Context, kind Kind, value string) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE kind = ?`, string(kind))
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO credentials (kind, value, updated_at_unix_ms) VALUES (?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET value = excluded.value, updated_at_unix_ms = excluded.updated_at_unix_ms`,
		string(kind), value, time.Now().UnixMilli())
	return err
}
