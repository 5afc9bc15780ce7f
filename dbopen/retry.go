package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// busyBackoff is the pause before each retry of a write that hit a lock held
// by another connection, on top of the busy_timeout already spent in SQLite.
// The cache purge and the metrics flush are the usual contenders.
var busyBackoff = []time.Duration{50 * time.Millisecond, 150 * time.Millisecond, 400 * time.Millisecond}

// IsBusy reports whether err means the database or a table was locked.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "is locked")
}

// RunTx runs fn in a transaction. A transaction that fails on a lock is
// rolled back and run again from the start, so fn must not keep state
// between calls.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	return whileBusy(ctx, "transaction", func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("dbopen: begin: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("dbopen: commit: %w", err)
		}
		return nil
	})
}

// Exec runs a single write statement, retried like RunTx.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := whileBusy(ctx, "exec", func() error {
		var err error
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func whileBusy(ctx context.Context, what string, fn func() error) error {
	err := fn()
	for _, pause := range busyBackoff {
		if !IsBusy(err) {
			return err
		}
		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("dbopen: %s gave up waiting for lock: %w", what, ctx.Err())
		case <-t.C:
		}
		err = fn()
	}
	if IsBusy(err) {
		return fmt.Errorf("dbopen: %s still locked after %d attempts: %w", what, len(busyBackoff)+1, err)
	}
	return err
}
