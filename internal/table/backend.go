package table

import (
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/koustreak/table-mysql/internal/config"
	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/koustreak/table-mysql/internal/logger"
	"github.com/koustreak/table-mysql/internal/service"
)

// Options configures a Backend.
type Options struct {
	Dialer database.Dialer
	Logger *logger.Logger

	// Now overrides the clock used for enumeration expiry.
	Now func() time.Time
}

// Backend serves the four table operations. All operations, including
// Status, are serialized behind one lock.
type Backend struct {
	mu sync.Mutex

	path    string
	mgr     *Manager
	sources *Sources
	log     *logger.Logger
	now     func() time.Time
}

// New returns a disconnected backend for cfg, which was loaded from path.
// Update reloads from path.
func New(path string, cfg *config.Config, opts Options) *Backend {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Backend{
		path:    path,
		mgr:     NewManager(opts.Dialer, cfg, log),
		sources: NewSources(cfg.SourceRefresh, cfg.SourceExpire, now),
		log:     log,
		now:     now,
	}
}

// Connect establishes the session with the current configuration.
func (b *Backend) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.mgr.Connect(ctx, b.mgr.Config())
}

// Update reloads the configuration file. On failure the previous
// configuration, session and enumeration snapshot keep serving.
func (b *Backend) Update(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.mgr.Reload(ctx, b.path); err != nil {
		b.log.WarnErr("update failed", err, map[string]any{"path": b.path})
		return err
	}

	cfg := b.mgr.Config()
	b.sources = NewSources(cfg.SourceRefresh, cfg.SourceExpire, b.now)
	b.log.Info("configuration reloaded")
	return nil
}

// Check reports whether key exists for svc.
func (b *Backend) Check(ctx context.Context, svc service.Service, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.configured(svc); err != nil {
		return false, err
	}

	cur, err := b.mgr.query(ctx, svc, key)
	if err != nil {
		b.logFailure("check", svc, err)
		return false, err
	}

	ok, err := found(cur)
	if err != nil {
		b.logFailure("check", svc, err)
		return false, err
	}
	return ok, nil
}

// Lookup returns the encoded value for key. ok is false when nothing matched.
func (b *Backend) Lookup(ctx context.Context, svc service.Service, key string) (value string, ok bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.configured(svc); err != nil {
		return "", false, err
	}

	cur, err := b.mgr.query(ctx, svc, key)
	if err != nil {
		b.logFailure("lookup", svc, err)
		return "", false, err
	}

	value, ok, err = encode(svc, cur)
	if err != nil {
		b.logFailure("lookup", svc, err)
		return "", false, err
	}
	return value, ok, nil
}

// Fetch returns the next enumeration key. Only the source service can be
// enumerated. ok is false when the enumeration query returned no rows.
func (b *Backend) Fetch(ctx context.Context, svc service.Service) (key string, ok bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if svc != service.Source {
		return "", false, errs.Newf(errs.ErrKindUnsupported, "fetch not supported for %s", svc)
	}
	if _, ok := b.mgr.Config().FetchQuery(); !ok {
		return "", false, errs.Newf(errs.ErrKindUnsupported, "%s not configured", service.FetchQueryKey)
	}

	if b.sources.Stale() {
		if err := b.refreshSources(ctx); err != nil {
			b.logFailure("fetch", svc, err)
			return "", false, err
		}
	}

	key, ok = b.sources.Next()
	return key, ok, nil
}

// refreshSources runs the enumeration query and swaps in its rows. The
// current snapshot is left untouched unless the whole result was read.
func (b *Backend) refreshSources(ctx context.Context) error {
	cur, err := b.mgr.querySources(ctx)
	if err != nil {
		return err
	}
	defer cur.Close()

	keys := mapset.NewThreadUnsafeSet[string]()
	for {
		ok, err := cur.Next()
		if errs.IsEncoding(err) {
			b.log.WarnErr("skipping source", err, nil)
			continue
		}
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		keys.Add(cur.row[0])
	}

	b.sources.Replace(keys)
	b.log.Debugf("refreshed %d sources", keys.Cardinality())
	return nil
}

// configured fails for services without a query, before any connection
// is attempted.
func (b *Backend) configured(svc service.Service) error {
	if !svc.Valid() {
		return errs.Newf(errs.ErrKindUnsupported, "unknown service %s", svc)
	}
	if _, ok := b.mgr.Config().Query(svc); !ok {
		return errs.Newf(errs.ErrKindUnsupported, "%s not configured", svc.QueryKey())
	}
	return nil
}

func (b *Backend) logFailure(op string, svc service.Service, err error) {
	b.log.WarnErr(op+" failed", err, map[string]any{"service": svc.String()})
}

// Status is a point-in-time view of the backend.
type Status struct {
	State           string    `json:"state"`
	Configured      []string  `json:"configured"`
	Sources         int       `json:"sources"`
	SourceCalls     int       `json:"source_calls"`
	SourceRefreshed time.Time `json:"source_refreshed"`
}

// Status returns a snapshot of the backend state.
func (b *Backend) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		State:           b.mgr.State().String(),
		Configured:      []string{},
		Sources:         b.sources.Len(),
		SourceCalls:     b.sources.Calls(),
		SourceRefreshed: b.sources.Refreshed(),
	}
	for _, svc := range b.mgr.Config().Configured() {
		st.Configured = append(st.Configured, svc.String())
	}
	return st
}

// Close releases the session.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.mgr.Reset()
}
