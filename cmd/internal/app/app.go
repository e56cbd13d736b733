// Package app wires the Poli server runtime: config, logging, stores, the
// auth gateway and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/identity"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/api"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/gateway"
	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/internal/auth/session"
)

// Version is reported on the JSON index page.
var Version = "1.0.0"

// App is the Poli server runtime: it owns the HTTP server and the
// resources behind it.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool
	redis  *redis.Client

	registry *prometheus.Registry
	auth     *api.Handler
	started  time.Time
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg)
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.build(ctx, store); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, store identity.Store) error {
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	if err := ensureTokenSecret(a.cfg, &sessCfg, a.log); err != nil {
		return err
	}
	tokens, err := session.NewManager(sessCfg)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}

	hasher, err := identity.PasswordHasherFromEnv()
	if err != nil {
		return fmt.Errorf("password config: %w", err)
	}

	gwCfg, err := gateway.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}
	gw, err := gateway.New(store, hasher, tokens, gwCfg, gateway.WithLogger(a.log))
	if err != nil {
		return err
	}

	authCfg := api.LoadConfigFromEnv(a.cfg.Production())
	opts := []api.HandlerOption{api.WithMetrics(api.NewMetrics(a.registry))}
	if a.cfg.RedisAddr != "" {
		rdb, err := newRedisClient(ctx, a.cfg)
		if err != nil {
			return err
		}
		a.redis = rdb
		opts = append(opts, api.WithFailureStore(api.NewRedisFailureStore(rdb, authCfg.FailureRetention())))
		a.log.Info("auth.throttle.redis", "addr", a.cfg.RedisAddr)
	}

	a.auth, err = api.NewHandler(a.log, gw, tokens, authCfg, opts...)
	if err != nil {
		return err
	}

	a.log.Info("auth.config",
		"token_format", sessCfg.Format,
		"token_ttl", sessCfg.TTL.String(),
		"require_active_purchase", gwCfg.RequireActivePurchase,
		"require_token", authCfg.RequireToken,
		"simulation", authCfg.EnableSimulation,
		"debug", authCfg.EnableDebug,
	)
	return nil
}

// Handler returns the full middleware-wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, httpDeps{
		log:      a.log,
		cfg:      a.cfg,
		dbPool:   a.dbPool,
		registry: a.registry,
		auth:     a.auth,
		started:  a.started,
		version:  Version,
	})

	var h http.Handler = mux
	h = WithHTTPMetrics(h, newHTTPMetrics(a.registry))
	h = WithSecurityHeaders(h)
	h = WithCORS(h, a.cfg, a.log)
	h = WithRequestLogging(h, a.log)
	h = WithRequestID(h)
	return h
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", runtimeBaseURL(a.cfg.HTTPAddr),
		"env", a.cfg.Env,
		"db_enabled", a.dbPool != nil,
		"static_dir", a.cfg.StaticDir,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// close releases the pool and Redis client. The app owns both.
func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

// newStore decides between Postgres-backed persistence and the in-memory store.
func (a *App) newStore(ctx context.Context) (identity.Store, error) {
	if a.cfg.DatabaseURL == "" {
		if a.cfg.Production() {
			a.log.Warn("db.disabled.inmemory_store", "effect", "purchases and users are lost on restart")
		} else {
			a.log.Info("db.disabled.inmemory_store")
		}
		return identity.NewMemoryStore(), nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	st, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a.dbPool = pool
	a.log.Info("db.enabled.postgres_store", "migrate", a.cfg.DBMigrate)
	return st, nil
}

func newRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rdb, nil
}

// runtimeBaseURL turns a listen address into a URL a human can click.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
