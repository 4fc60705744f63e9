package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/koustreak/table-mysql/internal/errs"
)

// ErrorMapper translates a driver error into an *errs.Error.
// Each driver package supplies one.
type ErrorMapper func(err error, msg string) *errs.Error

// SQLSession implements Session on a database/sql handle capped at one
// connection. database/sql transparently redials a broken connection and
// re-prepares statements on it, which gives the handle its own low-level
// reconnect underneath the table's reconnect-and-retry.
type SQLSession struct {
	db     *sql.DB
	mapErr ErrorMapper
}

// NewSQLSession pins db to a single connection and verifies it with a ping.
// db is closed when the ping fails.
func NewSQLSession(ctx context.Context, db *sql.DB, mapErr ErrorMapper) (*SQLSession, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, mapErr(err, "connect failed")
	}
	return &SQLSession{db: db, mapErr: mapErr}, nil
}

// Prepare implements Session. The placeholder count is read from the
// driver statement before the database/sql statement is created.
func (s *SQLSession) Prepare(ctx context.Context, query string) (Stmt, error) {
	nparams, err := s.numInput(ctx, query)
	if err != nil {
		return nil, err
	}

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, s.mapErr(err, "prepare failed")
	}
	return &sqlStmt{stmt: stmt, nparams: nparams, mapErr: s.mapErr}, nil
}

func (s *SQLSession) numInput(ctx context.Context, query string) (int, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, s.mapErr(err, "acquire connection failed")
	}
	defer conn.Close()

	n := -1
	err = conn.Raw(func(dc any) error {
		var (
			ds  driver.Stmt
			err error
		)
		if pc, ok := dc.(driver.ConnPrepareContext); ok {
			ds, err = pc.PrepareContext(ctx, query)
		} else if c, ok := dc.(driver.Conn); ok {
			ds, err = c.Prepare(query)
		} else {
			return fmt.Errorf("driver connection %T cannot prepare", dc)
		}
		if err != nil {
			return err
		}
		n = ds.NumInput()
		return ds.Close()
	})
	if err != nil {
		return 0, s.mapErr(err, "prepare failed")
	}
	return n, nil
}

// Close implements Session.
func (s *SQLSession) Close() error {
	return s.db.Close()
}

type sqlStmt struct {
	stmt    *sql.Stmt
	nparams int
	mapErr  ErrorMapper
}

func (s *sqlStmt) NumInput() int   { return s.nparams }
func (s *sqlStmt) NumColumns() int { return -1 }
func (s *sqlStmt) Close() error    { return s.stmt.Close() }

func (s *sqlStmt) Query(ctx context.Context, args ...any) (Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, s.mapErr(err, "execute failed")
	}
	return &sqlRows{rows: rows, mapErr: s.mapErr}, nil
}

type sqlRows struct {
	rows   *sql.Rows
	mapErr ErrorMapper
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }

func (r *sqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "scan failed", err)
	}
	return nil
}

func (r *sqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return r.mapErr(err, "fetch failed")
	}
	return nil
}
