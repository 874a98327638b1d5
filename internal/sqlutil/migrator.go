package sqlutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Migration is a single reversible schema change, matching the teacher's
// `sqlutil.Migration{Version, Up, Down}` (see
// mediaapi/storage/postgres/mediaapi.go).
type Migration struct {
	Version string
	Up      func(ctx context.Context, tx *sql.Tx) error
	Down    func(ctx context.Context, tx *sql.Tx) error
}

// Migrator applies a set of migrations in registration order, tracking
// which have already run in a bookkeeping table.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator wraps db for migration tracking, matching
// `sqlutil.NewMigrator(db)`.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// AddMigrations registers migrations to be applied by Up, in order.
func (m *Migrator) AddMigrations(migrations ...Migration) {
	m.migrations = append(m.migrations, migrations...)
}

const migrationTableSQL = `
CREATE TABLE IF NOT EXISTS engine_migrations (
	version TEXT PRIMARY KEY,
	applied_at BIGINT NOT NULL
);
`

// Up applies every not-yet-applied migration inside its own transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, migrationTableSQL); err != nil {
		return errors.Wrap(err, "create migration table")
	}
	for _, mig := range m.migrations {
		applied, err := m.isApplied(ctx, mig.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := WithTransaction(ctx, m.db, func(txn *sql.Tx) error {
			if err := mig.Up(ctx, txn); err != nil {
				return errors.Wrapf(err, "migration %s", mig.Version)
			}
			_, err := txn.ExecContext(ctx,
				`INSERT INTO engine_migrations (version, applied_at) VALUES ($1, $2)`,
				mig.Version, time.Now().Unix())
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) isApplied(ctx context.Context, version string) (bool, error) {
	var n int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM engine_migrations WHERE version = $1`, version).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
