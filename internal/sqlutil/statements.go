package sqlutil

import "database/sql"

// StatementList prepares a batch of named SQL statements against a *sql.DB,
// matching the teacher's `sqlutil.StatementList{...}.Prepare(db)` call site
// (see syncapi/storage/sqlite3/sliding_sync_table.go in the teacher). Each
// entry points at the field that should receive the prepared statement.
type StatementList []struct {
	Statement **sql.Stmt
	SQL       string
}

// Prepare prepares every statement in the list, stopping at the first
// failure so the caller can attribute it to a specific SQL string.
func (s StatementList) Prepare(db *sql.DB) error {
	for _, e := range s {
		stmt, err := db.Prepare(e.SQL)
		if err != nil {
			return err
		}
		*e.Statement = stmt
	}
	return nil
}

// TxStmt rebinds a prepared statement to run inside txn when one is
// supplied, or leaves it pool-managed when txn is nil — the same dual-mode
// call the teacher's storage layer uses throughout (e.g.
// `sqlutil.TxStmt(txn, s.selectConnectionStmt)`).
func TxStmt(txn *sql.Tx, stmt *sql.Stmt) *sql.Stmt {
	if txn == nil {
		return stmt
	}
	return txn.Stmt(stmt)
}
