package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/shikkhaloy/shikkhaloy/core"
)

const uniqueViolation = "23505"

// server-side codes meaning the database went away: admin_shutdown, crash_shutdown, cannot_connect_now
var shutdownCodes = map[string]bool{"57P01": true, "57P02": true, "57P03": true}

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return wrapErr(err, msg)
}

// wrapErr annotates a query error; a lost database turns into a shutdown error.
func wrapErr(err error, msg string) error {
	if connectionLost(err) {
		return core.NewShutdownError(msg, err)
	}
	return pkgerrors.Wrap(err, msg)
}

func connectionLost(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return shutdownCodes[string(pqErr.Code)]
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return shutdownCodes[pgErr.Code]
	}
	return false
}

// uniqueConstraint returns the name of the violated unique constraint, for either driver.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return pqErr.Constraint, true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
