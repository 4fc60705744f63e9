package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/table-mysql/internal/errs"
)

// PostgreSQL SQLSTATE codes outside class 08 that end the session.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgErrAdminShutdown    = "57P01"
	pgErrCrashShutdown    = "57P02"
	pgErrCannotConnectNow = "57P03"
	pgErrInvalidCatalog   = "3D000"
)

// mapError translates pgx errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifySQLState(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	switch {
	case errors.As(err, &connectErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr):
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifySQLState maps a SQLSTATE to ErrKind.
func classifySQLState(code string) errs.ErrKind {
	switch {
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "28"):
		return errs.ErrKindConnectionFailed
	case code == pgErrAdminShutdown, code == pgErrCrashShutdown,
		code == pgErrCannotConnectNow, code == pgErrInvalidCatalog:
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
