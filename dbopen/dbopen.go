// Package dbopen opens the SQLite files behind the result cache and the
// metrics store.
//
// Pragmas travel in the data source name, so every pooled connection gets
// them, not only the first:
//
//	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
//
// In tests:
//
//	db := dbopen.OpenMemory(t, dbopen.WithSchema(schema))
package dbopen

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

type settings struct {
	busyTimeout time.Duration
	synchronous string
	mkdirAll    bool
	schemas     []string
}

// Option adjusts Open.
type Option func(*settings)

// WithBusyTimeout bounds how long a statement waits on a lock. Default 10s.
func WithBusyTimeout(d time.Duration) Option { return func(s *settings) { s.busyTimeout = d } }

// WithSynchronous sets the synchronous pragma. Default NORMAL.
func WithSynchronous(mode string) Option { return func(s *settings) { s.synchronous = mode } }

// WithMkdirAll creates the parent directories of path.
func WithMkdirAll() Option { return func(s *settings) { s.mkdirAll = true } }

// WithSchema runs DDL once the database is open. It must be idempotent.
func WithSchema(ddl string) Option { return func(s *settings) { s.schemas = append(s.schemas, ddl) } }

// Open opens the SQLite database at path, or an in-memory one for ":memory:".
func Open(path string, opts ...Option) (*sql.DB, error) {
	s := settings{busyTimeout: 10 * time.Second, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&s)
	}

	if s.mkdirAll && path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, s))
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}
	for _, ddl := range s.schemas {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: apply schema: %w", err)
		}
	}
	return db, nil
}

// OpenMemory opens an in-memory database closed on test cleanup. The pool is
// limited to one connection since each in-memory connection is its own
// database.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(memoryPath, opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func dsn(path string, s settings) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.busyTimeout.Milliseconds()))
	q.Add("_pragma", "synchronous("+s.synchronous+")")
	if path != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + path + "?" + q.Encode()
}
