package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/slotmatch/slotmatch/internal/busy"
	"github.com/slotmatch/slotmatch/internal/config"
	"github.com/slotmatch/slotmatch/internal/google"
	"github.com/slotmatch/slotmatch/internal/instrumentation"
	"github.com/slotmatch/slotmatch/internal/localstore"
	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/store"
	"github.com/slotmatch/slotmatch/internal/store/memory"
	"github.com/slotmatch/slotmatch/internal/store/postgres"
)

// app bundles the collaborators every command builds from the same config.
type app struct {
	cfg    config.Config
	loc    *time.Location
	logger *slog.Logger

	store   store.Store
	backend string

	// pg is the unwrapped postgres store, nil for the memory driver.
	pg *postgres.Store

	feed  store.Subscriber
	local localstore.KV

	closers []func() error
}

// openApp validates cfg and opens the store, change feed and local store.
// metrics may be nil. The feed goroutines stop when ctx is done.
func openApp(ctx context.Context, cfg config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &app{cfg: cfg, loc: loc, logger: logger}
	if err := a.openStore(ctx, metrics); err != nil {
		return nil, err
	}
	if err := a.openFeed(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.openLocal(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, metrics *instrumentation.Metrics) error {
	var st store.Store
	switch a.cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := postgres.Open(ctx, a.cfg.DatabaseURL, a.logger)
		if err != nil {
			return err
		}
		st = pg
		a.pg = pg
		a.backend = instrumentation.BackendPostgres
	default:
		st = memory.New()
		a.backend = instrumentation.BackendMemory
		a.logger.Warn("using the in-memory store; events are lost on exit")
	}
	if metrics != nil {
		st = store.Observe(st, a.backend, metrics)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)
	return nil
}

func (a *app) openFeed(ctx context.Context) error {
	if a.cfg.StoreDriver != config.DriverPostgres {
		a.feed = store.NewPoller(a.store, a.cfg.PollInterval, a.logger)
		return nil
	}
	l := postgres.NewListener(a.cfg.DatabaseURL, a.logger)
	if err := l.Start(ctx); err != nil {
		return err
	}
	a.feed = l
	return nil
}

func (a *app) openLocal(ctx context.Context) error {
	switch {
	case a.cfg.RedisURL != "":
		r, err := localstore.OpenRedis(ctx, a.cfg.RedisURL, "")
		if err != nil {
			return err
		}
		a.local = r
		a.closers = append(a.closers, r.Close)
	case a.cfg.LocalStorePath != "":
		f, err := localstore.OpenFile(a.cfg.LocalStorePath)
		if err != nil {
			return err
		}
		a.local = f
	default:
		a.local = localstore.NewMemory()
	}
	return nil
}

// Close releases everything openApp opened. Closing the store again after
// ServerContext.Shutdown is harmless.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// serverOptions maps the app onto a ServerContext. baseCtx outlives single
// requests and is used by the busy source for token refreshes.
func (a *app) serverOptions(baseCtx context.Context) server.Options {
	name := a.cfg.ResolvedBusySource()
	return server.Options{
		Store:        a.store,
		Feed:         a.feed,
		BusyFactory:  busyFactory(baseCtx, a.cfg, a.loc, a.logger),
		BusyName:     name,
		Local:        a.local,
		HistoryLimit: a.cfg.HistoryLimit,
		Retention:    a.cfg.Retention(),
		Location:     a.loc,
		Logger:       a.logger,
	}
}

// busyFactory returns nil for the none source, which ServerContext treats
// as never busy.
func busyFactory(baseCtx context.Context, cfg config.Config, loc *time.Location, logger *slog.Logger) server.BusyFactory {
	switch cfg.ResolvedBusySource() {
	case config.BusyICal:
		return func(context.Context) (busy.Source, error) {
			logger.Info("using iCal feed for busy times", slog.String("url", logging.SanitizeURL(cfg.ICalURL)))
			return busy.NewICalSource(cfg.ICalURL, loc, busy.WithLogger(logger)), nil
		}
	case config.BusyGoogle:
		return func(context.Context) (busy.Source, error) {
			conf := google.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURL,
			}.OAuth2()
			provider := google.NewFileTokenProvider(cfg.GoogleTokenDir)
			ts, err := google.TokenSource(baseCtx, conf, provider, cfg.GoogleAccount)
			if errors.Is(err, google.ErrNoToken) {
				return nil, errors.New(google.GetAuthenticationErrorMessage(cfg.GoogleAccount))
			}
			if err != nil {
				return nil, err
			}
			return busy.NewGoogleSource(baseCtx, ts, cfg.GoogleCalendarID, loc)
		}
	default:
		return nil
	}
}
