package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"empdir/internal/domain/audit"
	"empdir/internal/domain/auth"
	"empdir/internal/domain/directory"
	"empdir/internal/platform/config"
	"empdir/internal/platform/db"
	"empdir/internal/platform/email"
	"empdir/internal/platform/logger"
	"empdir/internal/platform/metrics"
	"empdir/internal/platform/mongodb"
	authhandler "empdir/internal/transport/http/handlers/auth"
	directoryhandler "empdir/internal/transport/http/handlers/directory"
	"empdir/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	Store   directory.Store
	Service *directory.Service
	Mailer  *email.Dispatcher
	Metrics *metrics.Collector
	Router  http.Handler

	closers []func(context.Context)
}

// New opens the configured store and wires the application around it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	store, closers, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := NewWithStore(cfg, store)
	app.closers = append(app.closers, closers...)
	return app, nil
}

// NewWithStore wires the application around an already opened store.
func NewWithStore(cfg config.Config, store directory.Store) *App {
	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	mailer := email.New(cfg, collector)

	depth := cfg.MaxHierarchyDepth
	if depth <= 0 {
		depth = directory.DefaultMaxHierarchyDepth
	}
	service := directory.NewService(store, mailer, directory.WithMaxHierarchyDepth(depth))

	app := &App{
		Config:  cfg,
		Store:   store,
		Service: service,
		Mailer:  mailer,
		Metrics: collector,
	}
	app.Router = app.routes()
	return app
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Metrics(a.Metrics))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Store.Ping(ctx); err != nil {
			logger.FromContext(r.Context()).Warn().Err(err).Msg("readiness check failed")
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if a.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", a.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authService := auth.NewService(cfg.JWTSecret, cfg.AuthClientID, cfg.AuthClientSecretHash, cfg.TokenTTL)
		authHandler := authhandler.NewHandler(authService)
		r.Post("/auth/token", authHandler.HandleToken)

		directoryHandler := directoryhandler.NewHandler(a.Service, audit.New(*logger.Base()), cfg.JWTSecret != "")
		directoryHandler.RegisterRoutes(r)
	})

	return router
}

// Close drains queued mail and releases store connections.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.Mailer != nil {
		if err := a.Mailer.Close(ctx); err != nil {
			logger.Base().Warn().Err(err).Msg("mail queue not drained before shutdown")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}

func openStore(ctx context.Context, cfg config.Config) (directory.Store, []func(context.Context), error) {
	log := logger.Base()
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")
		return directory.NewPostgresStore(pool), []func(context.Context){func(context.Context) { pool.Close() }}, nil

	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		store := directory.NewMongoStore(mongodb.Collection(client, cfg))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("driver", cfg.StoreDriver).Str("database", cfg.MongoDatabase).Msg("store ready")
		closer := func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}
		return store, []func(context.Context){closer}, nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return directory.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Run loads configuration, serves HTTP until SIGINT or SIGTERM and then
// shuts down gracefully.
func Run() error {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment)
	log := logger.Base()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("store", cfg.StoreDriver).Msg("employee directory listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
