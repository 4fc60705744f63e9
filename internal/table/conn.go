// Package table answers check, lookup, fetch and update requests for the
// mail daemon by running one prepared statement per service against a
// single database session.
package table

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/koustreak/table-mysql/internal/config"
	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/koustreak/table-mysql/internal/logger"
	"github.com/koustreak/table-mysql/internal/service"
)

// State is the connection state of a Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// statement is a prepared query with the shape it must return.
type statement struct {
	stmt    database.Stmt
	key     string // configuration key the query came from
	query   string
	columns int

	// verified is set once a result set confirmed the column count.
	verified bool
}

// link is one session plus every statement prepared on it. Links are
// built completely or not at all, and replaced as a whole.
type link struct {
	sess  database.Session
	stmts map[service.Service]*statement
	fetch *statement
}

func (l *link) close() error {
	var result *multierror.Error
	for svc, st := range l.stmts {
		if err := st.stmt.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s statement: %w", svc, err))
		}
	}
	if l.fetch != nil {
		if err := l.fetch.stmt.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s statement: %w", service.FetchQueryKey, err))
		}
	}
	if err := l.sess.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close session: %w", err))
	}
	return result.ErrorOrNil()
}

// Manager owns the configuration and the session built from it.
// It is not safe for concurrent use; Backend serializes access.
type Manager struct {
	dialer database.Dialer
	log    *logger.Logger

	cfg   *config.Config
	link  *link
	state State

	// disabled holds the configuration keys of statements whose result
	// shape was wrong. It survives reconnects and is cleared only when a
	// configuration is loaded.
	disabled map[string]bool

	// row is the result buffer shared by every cursor.
	row [MaxColumns]string
}

// NewManager returns a disconnected manager for cfg.
func NewManager(dialer database.Dialer, cfg *config.Config, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{dialer: dialer, cfg: cfg, log: log, disabled: make(map[string]bool)}
}

// Config returns the active configuration.
func (m *Manager) Config() *config.Config { return m.cfg }

// State returns the connection state.
func (m *Manager) State() State { return m.state }

// Connect drops any current session and connects with cfg. cfg becomes
// the active configuration only when the connection succeeds; otherwise
// the previous one is kept for later reconnects.
func (m *Manager) Connect(ctx context.Context, cfg *config.Config) error {
	if err := m.connectWith(ctx, cfg, StateConnecting); err != nil {
		return err
	}
	if cfg != m.cfg {
		m.cfg = cfg
		clear(m.disabled)
	}
	return nil
}

// connect reconnects with the active configuration.
func (m *Manager) connect(ctx context.Context, via State) error {
	return m.connectWith(ctx, m.cfg, via)
}

func (m *Manager) connectWith(ctx context.Context, cfg *config.Config, via State) error {
	m.log.Debug("(re)connecting")
	if err := m.Reset(); err != nil {
		m.log.WarnErr("reset failed", err, nil)
	}

	m.state = via
	l, err := m.open(ctx, cfg)
	if err != nil {
		m.state = StateDisconnected
		return err
	}
	m.link = l
	m.state = StateReady
	m.log.Debug("connected")
	return nil
}

// Reset releases every statement and the session. It is safe to call
// when already disconnected.
func (m *Manager) Reset() error {
	l := m.link
	m.link = nil
	m.state = StateDisconnected
	if l == nil {
		return nil
	}
	return l.close()
}

// Reload parses the file at path and connects with it. The current
// configuration and session are replaced only when both steps succeed.
func (m *Manager) Reload(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	l, err := m.open(ctx, cfg)
	if err != nil {
		return err
	}

	old := m.link
	m.cfg, m.link, m.state = cfg, l, StateReady
	clear(m.disabled)
	if old != nil {
		if err := old.close(); err != nil {
			m.log.WarnErr("closing previous session", err, nil)
		}
	}
	return nil
}

// ensure connects with the active configuration when disconnected.
func (m *Manager) ensure(ctx context.Context) error {
	if m.link != nil {
		return nil
	}
	if m.cfg == nil {
		return errs.New(errs.ErrKindConfiguration, "no configuration loaded")
	}
	return m.connect(ctx, StateConnecting)
}

// open dials a session and prepares every configured statement on it.
// Partial state is released on failure.
func (m *Manager) open(ctx context.Context, cfg *config.Config) (*link, error) {
	sess, err := m.dialer.Dial(ctx, cfg.Database())
	if err != nil {
		m.log.WarnErr("connect failed", err, nil)
		return nil, err
	}

	l := &link{sess: sess, stmts: make(map[service.Service]*statement)}
	for _, svc := range service.All() {
		q, ok := cfg.Query(svc)
		if !ok {
			continue
		}
		st, err := m.prepare(ctx, sess, svc.QueryKey(), q, service.Params, svc.Columns())
		if err != nil {
			_ = l.close()
			return nil, fmt.Errorf("%s: %w", svc.QueryKey(), err)
		}
		l.stmts[svc] = st
	}

	if q, ok := cfg.FetchQuery(); ok {
		st, err := m.prepare(ctx, sess, service.FetchQueryKey, q, 0, 1)
		if err != nil {
			_ = l.close()
			return nil, fmt.Errorf("%s: %w", service.FetchQueryKey, err)
		}
		l.fetch = st
	}
	return l, nil
}

func (m *Manager) prepare(ctx context.Context, sess database.Session, key, query string, params, columns int) (*statement, error) {
	stmt, err := sess.Prepare(ctx, query)
	if err != nil {
		m.log.WarnErr("prepare failed", err, map[string]any{"query": query})
		if errs.IsConnectionFailed(err) || errs.IsTimeout(err) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrKindStatement, "prepare failed", err)
	}

	if n := stmt.NumInput(); n != params {
		_ = stmt.Close()
		m.log.Warnf("wrong number of params for %s", query)
		return nil, errs.Newf(errs.ErrKindStatement, "wrong number of params: got %d, want %d", n, params)
	}

	st := &statement{stmt: stmt, key: key, query: query, columns: columns}
	if n := stmt.NumColumns(); n >= 0 {
		if n != columns {
			_ = stmt.Close()
			m.log.Warn("wrong number of columns in resultset")
			return nil, errs.Newf(errs.ErrKindStatement, "wrong number of columns: got %d, want %d", n, columns)
		}
		st.verified = true
	}
	return st, nil
}
