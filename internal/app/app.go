// Package app assembles the service from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"igserve/pkg/auth"
	"igserve/pkg/catalog"
	"igserve/pkg/config"
	"igserve/pkg/database"
	"igserve/pkg/logger"
	"igserve/pkg/metrics"
	"igserve/pkg/ratelimit"
	"igserve/pkg/retry"
	"igserve/pkg/scraper"
	"igserve/pkg/server"
)

// App owns the long-lived resources of a running service
type App struct {
	cfg     *config.Config
	log     logger.Logger
	db      *database.DB
	limiter *ratelimit.KeyedLimiter
	handler http.Handler
}

// Option customizes New
type Option func(*options)

type options struct {
	sessions auth.Store
	registry *prometheus.Registry
	backoff  retry.BackoffStrategy
}

// WithSessionStore replaces the session store built from the session config
func WithSessionStore(store auth.Store) Option {
	return func(o *options) { o.sessions = store }
}

// WithRegistry registers metrics on reg instead of a fresh registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithConnectBackoff sets the delay between database connection attempts
func WithConnectBackoff(b retry.BackoffStrategy) Option {
	return func(o *options) { o.backoff = b }
}

// New connects to the database and wires the HTTP handler.
// Call Close when done.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	o := &options{backoff: retry.DefaultExponentialBackoff()}
	for _, opt := range opts {
		opt(o)
	}

	db, err := Connect(ctx, &cfg.Database, o.backoff, log)
	if err != nil {
		return nil, err
	}

	sessions := o.sessions
	if sessions == nil {
		manager, err := auth.NewManagerFromConfig(&cfg.Session, log)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set up session store: %w", err)
		}
		sessions = manager
	}

	if !cfg.HasInstagramCredentials() {
		log.Warn("instagram credentials not configured, authenticated downloads and login will be rejected")
	}

	reg := o.registry
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	a := &App{cfg: cfg, log: log, db: db}

	deps := &server.Deps{
		Countries:      catalog.NewService(catalog.NewSQLRepository(db), log),
		Videos:         scraper.NewFromConfig(&cfg.Instagram, sessions, log),
		Logger:         log,
		Health:         db,
		Metrics:        metrics.NewCollector(reg),
		MetricsHandler: metrics.Handler(reg),
		TrustProxy:     cfg.Server.TrustProxy,
	}
	if limiter := ratelimit.NewFromConfig(&cfg.RateLimit); limiter != nil {
		a.limiter = limiter
		deps.Limiter = limiter
	}
	a.handler = server.NewRouter(deps)

	return a, nil
}

// Handler returns the HTTP API
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	return server.New(&a.cfg.Server, a.handler, a.log).Run(ctx)
}

// Close releases the database pool and background workers
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	return a.db.Close()
}

// Connect opens the database and waits until it answers a ping
func Connect(ctx context.Context, cfg *config.DatabaseConfig, backoff retry.BackoffStrategy, log logger.Logger) (*database.DB, error) {
	db, err := database.Open(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	err = retry.Do(ctx, &retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		Backoff:     backoff,
		Logger:      log.WithField("database", config.MaskDatabaseURL(cfg.URL)),
	}, db.PingContext)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.InfoWithFields("database connected", map[string]interface{}{
		"dialect": string(db.Dialect),
	})
	return db, nil
}

// Migrate applies pending schema migrations once the database is reachable
func Migrate(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) error {
	db, err := Connect(ctx, cfg, retry.DefaultExponentialBackoff(), log)
	if err != nil {
		return err
	}
	_ = db.Close()

	if err := database.RunMigrations(cfg.URL); err != nil {
		return err
	}
	log.Info("database migrations applied")
	return nil
}
