package sqlutil

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Writer runs a function inside a transaction on a single worker, the
// engine's "run_interaction(name, fn)" collaborator from spec §1. The
// teacher exposes the same shape as `sqlutil.Writer` (see
// mediaapi/storage/shared/mediaapi.go: `d.Writer.Do(d.DB, nil, func(txn
// *sql.Tx) error {...})`).
type Writer interface {
	Do(db *sql.DB, txn *sql.Tx, fn func(txn *sql.Tx) error) error
}

// ExclusiveWriter serializes every interaction through a single goroutine,
// which is the teacher's default writer for SQLite (no concurrent writers)
// and a safe, if conservative, default for Postgres too. Spec §5 requires
// that "nested suspension inside a DB interaction is forbidden" — a
// dedicated worker goroutine enforces that by construction.
type ExclusiveWriter struct {
	queue chan func()
}

// NewExclusiveWriter starts the single worker goroutine that executes every
// submitted interaction to completion before picking up the next.
func NewExclusiveWriter() *ExclusiveWriter {
	w := &ExclusiveWriter{queue: make(chan func())}
	go w.run()
	return w
}

func (w *ExclusiveWriter) run() {
	for fn := range w.queue {
		fn()
	}
}

// Do runs fn inside a transaction (beginning and committing/rolling back
// one if txn is nil, or reusing txn if the caller is already inside an
// interaction).
func (w *ExclusiveWriter) Do(db *sql.DB, txn *sql.Tx, fn func(txn *sql.Tx) error) error {
	if txn != nil {
		return fn(txn)
	}
	done := make(chan error, 1)
	w.queue <- func() {
		done <- withTransaction(db, fn)
	}
	return <-done
}

func withTransaction(db *sql.DB, fn func(txn *sql.Tx) error) (err error) {
	txn, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = txn.Rollback()
			panic(p)
		}
		if err != nil {
			_ = txn.Rollback()
			return
		}
		err = txn.Commit()
	}()
	err = fn(txn)
	return err
}

// WithTransaction is the context-aware convenience form for work that does
// not need the exclusive-writer serialization; Migrator.Up runs each
// migration through it.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(txn *sql.Tx) error) (err error) {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = txn.Rollback()
			panic(p)
		}
		if err != nil {
			_ = txn.Rollback()
			return
		}
		err = txn.Commit()
	}()
	err = fn(txn)
	return err
}
