package table

import (
	"context"

	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/koustreak/table-mysql/internal/service"
)

const (
	// MaxKeyLen is the longest key accepted for a lookup.
	MaxKeyLen = 2047

	// MaxValueLen bounds every result column and every encoded result.
	MaxValueLen = 2047

	// MaxColumns is the widest result row any statement may return.
	MaxColumns = 5
)

// cursor walks the rows of one execution. Each row is scanned into the
// manager's shared buffer, so a row is only valid until the next call.
type cursor struct {
	rows database.Rows
	row  []string
}

// Next advances to the next row. It returns false with a nil error when
// the result set is exhausted.
func (c *cursor) Next() (bool, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := database.ScanStrings(c.rows, c.row); err != nil {
		return false, err
	}
	for i, v := range c.row {
		if len(v) > MaxValueLen {
			return true, errs.Newf(errs.ErrKindEncoding, "column %d too large (%d bytes)", i, len(v))
		}
	}
	return true, nil
}

// Close releases the result set.
func (c *cursor) Close() {
	c.rows.Close()
}

// query runs svc's statement with key bound as its only parameter.
func (m *Manager) query(ctx context.Context, svc service.Service, key string) (*cursor, error) {
	if len(key) > MaxKeyLen {
		m.log.Warnf("key too long: %q", key)
		return nil, errs.Newf(errs.ErrKindInvalidInput, "key too long (%d bytes)", len(key))
	}
	return m.execute(ctx, func(l *link) *statement { return l.stmts[svc] }, key)
}

// querySources runs the enumeration statement.
func (m *Manager) querySources(ctx context.Context) (*cursor, error) {
	return m.execute(ctx, func(l *link) *statement { return l.fetch })
}

// execute runs the statement chosen by pick. A connection-level failure
// gets exactly one reconnect with the active configuration and, if that
// succeeds, exactly one more attempt. The budget is per call.
func (m *Manager) execute(ctx context.Context, pick func(*link) *statement, args ...any) (*cursor, error) {
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}

	cur, err := m.attempt(ctx, pick, args)
	if err == nil || !errs.IsConnectionFailed(err) {
		return cur, err
	}

	m.log.WarnErr("trying to reconnect after error", err, nil)
	if err := m.connect(ctx, StateReconnecting); err != nil {
		return nil, err
	}

	cur, err = m.attempt(ctx, pick, args)
	if err != nil && errs.IsConnectionFailed(err) {
		m.log.Warn("too many retries")
	}
	return cur, err
}

func (m *Manager) attempt(ctx context.Context, pick func(*link) *statement, args []any) (*cursor, error) {
	st := pick(m.link)
	if st == nil {
		return nil, errs.New(errs.ErrKindUnsupported, "no statement for service")
	}
	if m.disabled[st.key] {
		return nil, errs.Newf(errs.ErrKindUnsupported, "%s disabled until reload", st.key)
	}

	rows, err := st.stmt.Query(ctx, args...)
	if err != nil {
		return nil, err
	}

	if !st.verified {
		if err := database.CheckColumns(rows, st.columns); err != nil {
			rows.Close()
			m.disabled[st.key] = true
			m.log.WarnErr("disabling statement", err, map[string]any{"query": st.query})
			return nil, errs.Wrap(errs.ErrKindStatement, "result shape mismatch", err)
		}
		st.verified = true
	}

	return &cursor{rows: rows, row: m.row[:st.columns]}, nil
}
