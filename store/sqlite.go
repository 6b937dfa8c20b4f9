package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/everydev1618/gochat"
)

// DefaultBusyTimeout is how long SQLite waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// SQLite is a Store backed by modernc.org/sqlite.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens or creates the database at path. A path that already
// starts with "file:" is used as a DSN unchanged.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path required")
	}

	dsn := path
	if !strings.HasPrefix(path, "file:") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve sqlite path: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
			abs, DefaultBusyTimeout.Milliseconds())
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer; one connection keeps conditional updates serialized.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultBusyTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLite{db: db}, nil
}

// QueryRow returns the first row of query, or nil when there is none.
func (s *SQLite) QueryRow(ctx context.Context, query string) (chat.Row, error) {
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	vals, err := rows.SliceScan()
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return normalizeRow(vals), nil
}

// Exec runs stmt and commits it.
func (s *SQLite) Exec(ctx context.Context, stmt string) error {
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// DB exposes the underlying sqlx.DB.
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
