package mysql

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/table-mysql/internal/errs"
)

// MySQL server error numbers that mean the session itself is unusable.
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied        = 1044
	errAccessDenied          = 1045
	errBadDB                 = 1049
	errConCount              = 1040
	errServerShutdown        = 1053
	errNormalShutdown        = 1077
	errAbortingConnection    = 1152
	errNetReadError          = 1158
	errNetReadInterrupted    = 1159
	errNetErrorOnWrite       = 1160
	errNetWriteInterrupted   = 1161
	errNewAbortingConnection = 1184
	errTooManyUserConns      = 1203
	errUnknownStmtHandler    = 1243
	errConnectionKilled      = 1927
	errClientInteractionTO   = 4031
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(
			classifyMySQLCode(mysqlErr.Number),
			fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			err,
		)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	// database/sql argument and state errors
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDBAccessDenied, errAccessDenied, errBadDB:
		return errs.ErrKindConnectionFailed
	case errConCount, errTooManyUserConns:
		return errs.ErrKindConnectionFailed
	case errServerShutdown, errNormalShutdown, errAbortingConnection,
		errNetReadError, errNetReadInterrupted, errNetErrorOnWrite, errNetWriteInterrupted,
		errNewAbortingConnection, errUnknownStmtHandler, errConnectionKilled, errClientInteractionTO:
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
