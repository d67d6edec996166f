package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slotmatch/slotmatch/internal/busy"
	"github.com/slotmatch/slotmatch/internal/instrumentation"
	"github.com/slotmatch/slotmatch/internal/localstore"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/store"
)

// BusyFactory builds the busy-time source on first use.
type BusyFactory func(ctx context.Context) (busy.Source, error)

// Options configures a ServerContext. Store is required.
type Options struct {
	Store store.Store

	// Feed defaults to a Poller over Store.
	Feed store.Subscriber

	// Busy is used when BusyFactory is nil. Both nil means busy.None.
	Busy        busy.Source
	BusyFactory BusyFactory
	BusyName    string

	// Local backs identity and history. Defaults to localstore.Memory.
	Local        localstore.KV
	HistoryLimit int
	Retention    time.Duration

	Location *time.Location
	Logger   *slog.Logger
}

// ServerContext holds the collaborators of the MCP server.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store    store.Store
	feed     store.Subscriber
	identity localstore.Identity
	history  *localstore.History
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time

	busyFactory BusyFactory
	busySource  busy.Source
	busyName    string

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a ServerContext bound to ctx.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	feed := opts.Feed
	if feed == nil {
		feed = store.NewPoller(opts.Store, 0, logger)
	}
	local := opts.Local
	if local == nil {
		local = localstore.NewMemory()
	}
	history := localstore.NewHistory(local)
	if opts.HistoryLimit > 0 {
		history.Limit = opts.HistoryLimit
	}
	if opts.Retention > 0 {
		history.Retention = opts.Retention
	}

	sc := &ServerContext{
		store:       opts.Store,
		feed:        feed,
		identity:    localstore.Identity{KV: local},
		history:     history,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
		busyFactory: opts.BusyFactory,
		busySource:  opts.Busy,
		busyName:    opts.BusyName,
	}
	if sc.busyFactory == nil && sc.busySource == nil {
		sc.busySource = busy.None{}
		sc.busyName = instrumentation.BusySourceNone
	}
	sc.ctx, sc.cancel = context.WithCancel(ctx)
	return sc, nil
}

// Context is cancelled when the ServerContext shuts down.
func (sc *ServerContext) Context() context.Context { return sc.ctx }

func (sc *ServerContext) Store() store.Store { return sc.store }
func (sc *ServerContext) Feed() store.Subscriber { return sc.feed }
func (sc *ServerContext) Identity() localstore.Identity { return sc.identity }
func (sc *ServerContext) History() *localstore.History { return sc.history }
func (sc *ServerContext) Location() *time.Location { return sc.loc }
func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// Now returns the current time in the configured location.
func (sc *ServerContext) Now() time.Time {
	sc.mu.RLock()
	now := sc.now
	sc.mu.RUnlock()
	return now().In(sc.loc)
}

// SetClock replaces the time source, for tests.
func (sc *ServerContext) SetClock(now func() time.Time) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.now = now
}

// BusySource returns the busy-time source, creating it on first use. A
// factory error is returned as is and the factory is retried next time.
func (sc *ServerContext) BusySource(ctx context.Context) (busy.Source, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.busySource != nil {
		return sc.busySource, nil
	}
	src, err := sc.busyFactory(ctx)
	if err != nil {
		sc.logger.Warn("busy source unavailable", logging.Err(err))
		return nil, fmt.Errorf("busy source unavailable: %w", err)
	}
	sc.busySource = busy.Observe(src, sc.busyName, sc.metrics)
	return sc.busySource, nil
}

// BusyName is the configured busy source kind.
func (sc *ServerContext) BusyName() string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.busyName
}

// SetMetrics installs the metrics recorder used by the tools.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil when none is configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// Ping checks the store connection when the store supports it.
func (sc *ServerContext) Ping(ctx context.Context) error {
	if p, ok := sc.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// IsShutdown returns whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and closes the store. It is idempotent.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return sc.store.Close()
}
