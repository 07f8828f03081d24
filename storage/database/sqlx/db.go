// Package sqlxrepos provides PostgreSQL-backed repositories built on sqlx.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

// getExec resolves the executor for a query: a service-provided one wins over
// the repository's own. A provided executor must be sqlx-aware (sqlx.DB/sqlx.Tx).
func getExec(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if exe, ok := svcExec[0].(sqlx.ExtContext); ok {
			return exe
		}
	}
	return db
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}

// isUniqueViolation reports whether err is a psql unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
