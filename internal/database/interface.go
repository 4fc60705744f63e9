package database

import (
	"context"
	"fmt"

	"github.com/koustreak/table-mysql/internal/errs"
)

// Session is the single database session the table works against.
// The table never imports the mysql or postgres packages directly; it
// receives a Dialer and talks only to these interfaces.
type Session interface {
	// Prepare compiles query into a reusable statement on this session.
	Prepare(ctx context.Context, query string) (Stmt, error)

	// Close releases the session. Statements prepared on it become unusable.
	Close() error
}

// Stmt is a prepared statement.
type Stmt interface {
	// NumInput returns the number of placeholders in the statement.
	NumInput() int

	// NumColumns returns the result column count, or -1 when the driver
	// only reports it once a result set exists.
	NumColumns() int

	// Query executes the statement with args bound in order.
	Query(ctx context.Context, args ...any) (Rows, error)

	Close() error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Dialer opens a Session for a Config.
type Dialer interface {
	Dial(ctx context.Context, cfg *Config) (Session, error)
}

// Dialers selects a Dialer by Config.Driver.
type Dialers map[Driver]Dialer

// Dial implements Dialer.
func (d Dialers) Dial(ctx context.Context, cfg *Config) (Session, error) {
	dialer, ok := d[cfg.Driver]
	if !ok {
		return nil, errs.New(errs.ErrKindConfiguration, fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
	return dialer.Dial(ctx, cfg)
}
