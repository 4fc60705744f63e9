package table

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/table-mysql/internal/config"
	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/stretchr/testify/require"
)

// result is the canned answer of one query text.
type result struct {
	cols int
	rows [][]string
}

// fakeDialer is an in-memory database keyed by query text. Placeholders
// are counted as '?' characters.
type fakeDialer struct {
	data map[string]result

	// dialErrs is consumed one entry per Dial; nil entries succeed.
	dialErrs []error
	// execErrs is consumed one entry per execution of the query.
	execErrs map[string][]error
	// prepareCols overrides NumColumns for a query.
	prepareCols map[string]int

	dials      int
	dialed     *database.Config // settings of the last Dial
	execs      int
	rowsClosed int
	sessions   []*fakeSession
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		data:        make(map[string]result),
		execErrs:    make(map[string][]error),
		prepareCols: make(map[string]int),
	}
}

func (d *fakeDialer) set(query string, cols int, rows ...[]string) {
	d.data[query] = result{cols: cols, rows: rows}
}

func (d *fakeDialer) failExec(query string, errs ...error) {
	d.execErrs[query] = append(d.execErrs[query], errs...)
}

func (d *fakeDialer) Dial(_ context.Context, cfg *database.Config) (database.Session, error) {
	d.dials++
	d.dialed = cfg
	if len(d.dialErrs) > 0 {
		err := d.dialErrs[0]
		d.dialErrs = d.dialErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	s := &fakeSession{d: d}
	d.sessions = append(d.sessions, s)
	return s, nil
}

// live counts sessions that are open.
func (d *fakeDialer) live() int {
	n := 0
	for _, s := range d.sessions {
		if !s.closed {
			n++
		}
	}
	return n
}

type fakeSession struct {
	d      *fakeDialer
	closed bool
}

func (s *fakeSession) Prepare(_ context.Context, query string) (database.Stmt, error) {
	if s.closed {
		return nil, errs.New(errs.ErrKindConnectionFailed, "session closed")
	}
	if strings.Contains(query, "SYNTAX ERROR") {
		return nil, errs.New(errs.ErrKindQueryFailed, "you have an error in your SQL syntax")
	}
	cols := -1
	if n, ok := s.d.prepareCols[query]; ok {
		cols = n
	}
	return &fakeStmt{s: s, query: query, nparams: strings.Count(query, "?"), ncols: cols}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeStmt struct {
	s       *fakeSession
	query   string
	nparams int
	ncols   int
	closed  bool
}

func (st *fakeStmt) NumInput() int   { return st.nparams }
func (st *fakeStmt) NumColumns() int { return st.ncols }

func (st *fakeStmt) Close() error {
	st.closed = true
	return nil
}

func (st *fakeStmt) Query(_ context.Context, args ...any) (database.Rows, error) {
	d := st.s.d
	d.execs++
	if st.closed || st.s.closed {
		return nil, errs.New(errs.ErrKindConnectionFailed, "statement used after reset")
	}
	if len(args) != st.nparams {
		return nil, errs.Newf(errs.ErrKindQueryFailed, "expected %d arguments, got %d", st.nparams, len(args))
	}
	if q := d.execErrs[st.query]; len(q) > 0 {
		err := q[0]
		d.execErrs[st.query] = q[1:]
		if err != nil {
			return nil, err
		}
	}

	res := d.data[st.query]
	var rows [][]string
	if st.nparams == 0 {
		rows = res.rows
	} else {
		// first column of each canned row is the key it matches
		key := args[0].(string)
		for _, r := range res.rows {
			if r[0] == key {
				rows = append(rows, r[1:])
			}
		}
	}
	return &fakeRows{d: d, cols: res.cols, rows: rows, pos: -1}, nil
}

type fakeRows struct {
	d    *fakeDialer
	cols int
	rows [][]string
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}
	for i, dst := range dest {
		ns, ok := dst.(*sql.NullString)
		if !ok {
			return fmt.Errorf("unsupported Scan destination %T", dst)
		}
		*ns = sql.NullString{String: row[i], Valid: true}
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) {
	names := make([]string, r.cols)
	for i := range names {
		names[i] = fmt.Sprintf("c%d", i)
	}
	return names, nil
}

func (r *fakeRows) Close() { r.d.rowsClosed++ }

func (r *fakeRows) Err() error { return nil }

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func writeConfig(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

// newTestBackend writes lines to a config file and returns a backend for it.
func newTestBackend(t *testing.T, d *fakeDialer, clk *clock, lines ...string) (*Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mysql.conf")
	writeConfig(t, path, lines...)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	opts := Options{Dialer: d}
	if clk != nil {
		opts.Now = clk.Now
	}
	return New(path, cfg, opts), path
}
