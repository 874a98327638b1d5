// Package shared composes the engine's read-only view of the events,
// state_events, and room_memberships tables (spec §6) into one Database
// type, the same shape the teacher's mediaapi/storage/shared package uses:
// a struct holding *sql.DB plus a sqlutil.Writer, with the actual queries
// implemented as methods rather than scattered across call sites.
//
// Unlike the teacher's CRUD tables, every read here has a variable-shaped
// WHERE clause (an OrderPredicate bound, spec §4.2), so statements are built
// per call instead of prepared once; the dialect adapter below is the only
// per-backend difference (Postgres numbered placeholders vs SQLite "?").
package shared

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/roomstream/engine/internal/sqlutil"
	"github.com/roomstream/engine/predicate"
	"github.com/roomstream/engine/storage/tables"
)

// Dialect names the two backends the engine targets (spec §6).
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite3  Dialect = "sqlite3"
)

// Database is the engine's storage collaborator: the DB pool plus the
// dialect needed to render OrderPredicate bounds correctly.
type Database struct {
	DB      *sql.DB
	Writer  sqlutil.Writer
	Dialect Dialect
}

// New runs the schema migration and returns a ready Database. Called by
// storage/postgres and storage/sqlite3's NewDatabase constructors, matching
// the teacher's per-backend NewDatabase wrapping a shared struct.
func New(db *sql.DB, writer sqlutil.Writer, dialect Dialect) (*Database, error) {
	m := sqlutil.NewMigrator(db)
	m.AddMigrations(sqlutil.Migration{
		Version: "streamengine: initial schema",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, schemaSQL)
			return err
		},
		Down: func(ctx context.Context, tx *sql.Tx) error { return nil },
	})
	if err := m.Up(context.Background()); err != nil {
		return nil, errors.Wrap(err, "apply schema")
	}
	return &Database{DB: db, Writer: writer, Dialect: dialect}, nil
}

// render rewrites a predicate.Bound's "?" placeholders for the active
// dialect, starting numbering at argOffset+1 for Postgres.
func (d *Database) render(b predicate.Bound, argOffset int) (string, []any) {
	if d.Dialect != Postgres {
		return b.SQL, b.Args
	}
	var sb strings.Builder
	idx := argOffset
	for _, r := range b.SQL {
		if r == '?' {
			idx++
			fmt.Fprintf(&sb, "$%d", idx)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String(), b.Args
}

func (d *Database) placeholder(n int) string {
	if d.Dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func scanEventRow(rows *sql.Rows) (tables.EventRow, error) {
	var r tables.EventRow
	err := rows.Scan(&r.EventID, &r.RoomID, &r.Type, &r.StateKey, &r.StreamOrdering, &r.TopologicalOrdering)
	return r, err
}
