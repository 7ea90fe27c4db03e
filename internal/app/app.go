package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/batch"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/conference"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/identity"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/person"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/session"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/track"
	"github.com/heartmarshall/cfp-sync/internal/adapter/provider/conferencehall"
	"github.com/heartmarshall/cfp-sync/internal/adapter/redislock"
	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/metrics"
	"github.com/heartmarshall/cfp-sync/internal/service/importer"
	personsvc "github.com/heartmarshall/cfp-sync/internal/service/person"
	"github.com/heartmarshall/cfp-sync/internal/transport/middleware"
	"github.com/heartmarshall/cfp-sync/internal/transport/rest"
)

// App holds the wired services. Close releases the pool and the lock client.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Importer    *importer.Service
	Persons     *personsvc.Service
	Conferences *conference.Repo
	Registry    *prometheus.Registry

	pool   *pgxpool.Pool
	locker *redislock.Locker
}

// importLocker matches redislock.Locker and redislock.Nop.
type importLocker interface {
	Acquire(ctx context.Context, conferenceID string) (func(context.Context) error, error)
}

// New connects to Postgres (and Redis when configured) and wires the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var locker *redislock.Locker
	if cfg.Redis.URL != "" {
		locker, err = redislock.New(ctx, cfg.Redis.URL, cfg.Redis.LockTTL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	} else {
		logger.Warn("redis not configured, import lock disabled")
	}

	a := wire(cfg, logger, pool, locker)
	logger.Info("application wired",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.Int("max_batch_ops", cfg.Import.MaxBatchOps),
		slog.Bool("import_lock", locker != nil),
	)
	return a, nil
}

// wire builds the services on top of open connections. locker may be nil.
func wire(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, locker *redislock.Locker) *App {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		pool:     pool,
		locker:   locker,
	}

	var lock importLocker = redislock.Nop{}
	if locker != nil {
		lock = locker
	}

	tx := postgres.NewTxManager(pool)
	persons := person.New(pool)
	idx := identity.New(pool)
	a.Conferences = conference.New(pool)

	a.Importer = importer.NewService(
		logger,
		a.Conferences,
		persons,
		session.New(pool),
		track.New(pool),
		idx,
		batch.NewWriter(pool, tx),
		conferencehall.NewClient(cfg.Upstream, logger),
		lock,
		metrics.NewCollector(a.Registry),
		cfg.Import,
	)
	a.Persons = personsvc.NewService(logger, persons, idx, tx)
	return a
}

// Scheduler returns a scheduler importing conferenceIDs, or every importable
// conference when none are given.
func (a *App) Scheduler(conferenceIDs []string, opts importer.Options) *Scheduler {
	return NewScheduler(a.Importer, a.Conferences, a.Logger, conferenceIDs, opts)
}

// ServeOps serves the ops handler on cfg.Metrics.Addr until ctx is
// cancelled. It returns immediately when no address is configured.
func (a *App) ServeOps(ctx context.Context, sched *Scheduler) error {
	if a.Config.Metrics.Addr == "" {
		return nil
	}

	server := &http.Server{
		Addr:              a.Config.Metrics.Addr,
		Handler:           a.OpsHandler(sched),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("ops server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return nil
}

// OpsHandler routes /metrics, /live, /ready and /health.
func (a *App) OpsHandler(sched *Scheduler) http.Handler {
	deps := map[string]rest.Pinger{"database": a.pool}
	if a.locker != nil {
		deps["redis"] = a.locker
	}
	health := rest.NewHealthHandler(deps, sched, BuildVersion())

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler(a.Registry))
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	return middleware.Chain(middleware.Recovery(a.Logger), middleware.AccessLog(a.Logger))(mux)
}

// Close releases external connections.
func (a *App) Close() {
	if a.locker != nil {
		if err := a.locker.Close(); err != nil {
			a.Logger.Warn("close redis", slog.String("error", err.Error()))
		}
	}
	a.pool.Close()
}
