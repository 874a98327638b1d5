// Package sqlite3 wires storage/shared against mattn/go-sqlite3, matching
// the teacher's per-backend NewDatabase wrapper.
package sqlite3

import (
	"github.com/roomstream/engine/internal/sqlutil"
	"github.com/roomstream/engine/setup/config"
	"github.com/roomstream/engine/storage/shared"
)

// NewDatabase opens a SQLite-backed Database via the connection manager and
// applies the engine's schema migration.
func NewDatabase(conMan *sqlutil.Connections, dbOpts *config.DatabaseOptions) (*shared.Database, error) {
	db, writer, err := conMan.Connection(dbOpts)
	if err != nil {
		return nil, err
	}
	return shared.New(db, writer, shared.SQLite3)
}
