// Package postgres wires storage/shared against lib/pq, matching the
// teacher's per-backend NewDatabase wrapper (see
// mediaapi/storage/postgres/mediaapi.go).
package postgres

import (
	"github.com/roomstream/engine/internal/sqlutil"
	"github.com/roomstream/engine/setup/config"
	"github.com/roomstream/engine/storage/shared"
)

// NewDatabase opens a Postgres-backed Database via the connection manager
// and applies the engine's schema migration.
func NewDatabase(conMan *sqlutil.Connections, dbOpts *config.DatabaseOptions) (*shared.Database, error) {
	db, writer, err := conMan.Connection(dbOpts)
	if err != nil {
		return nil, err
	}
	return shared.New(db, writer, shared.Postgres)
}
