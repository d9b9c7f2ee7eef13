package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/audit"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/directory"
	"peopleops/internal/domain/requests"
	"peopleops/internal/domain/tasks"
	"peopleops/internal/platform/config"
	cryptoutil "peopleops/internal/platform/crypto"
	"peopleops/internal/platform/db"
	"peopleops/internal/platform/logging"
	"peopleops/internal/platform/metrics"
	attendancehandler "peopleops/internal/transport/http/handlers/attendance"
	audithandler "peopleops/internal/transport/http/handlers/audit"
	authhandler "peopleops/internal/transport/http/handlers/auth"
	directoryhandler "peopleops/internal/transport/http/handlers/directory"
	identityhandler "peopleops/internal/transport/http/handlers/identity"
	requestshandler "peopleops/internal/transport/http/handlers/requests"
	taskshandler "peopleops/internal/transport/http/handlers/tasks"
	"peopleops/internal/transport/http/middleware"
	"peopleops/migrations"
)

type App struct {
	Config config.Config
	DB     *db.Pool
	Router http.Handler
}

// New connects to the database, prepares the schema and wires every service
// behind the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	loc := cfg.Location()
	collector := metrics.New()
	trail := audit.New(pool)

	authSvc := auth.NewService(auth.NewStore(pool), auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, sealer)
	directorySvc := directory.NewService(directory.NewStore(pool))
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), loc)
	taskSvc := tasks.NewService(tasks.NewStore(pool))
	requestSvc := requests.NewService(requests.NewStore(pool))

	router := NewRouter(Deps{
		Config:   cfg,
		Metrics:  collector,
		Verifier: authSvc,
		Ping:     pool.Ping,
		Handlers: []RouteRegistrar{
			authhandler.NewHandler(authSvc, trail),
			identityhandler.NewHandler(authSvc, trail),
			directoryhandler.NewHandler(directorySvc, trail),
			attendancehandler.NewHandler(attendanceSvc, collector, loc),
			taskshandler.NewHandler(taskSvc, trail, collector),
			requestshandler.NewHandler(requestSvc, trail, middleware.NewIdempotencyStore(pool), collector),
			audithandler.NewHandler(trail),
		},
	})
	return &App{Config: cfg, DB: pool, Router: router}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("peopleops listening", "addr", a.Config.Addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Run is the server entrypoint: it loads config, serves until SIGINT or
// SIGTERM and exits non-zero on failure.
func Run() {
	cfg := config.Load()
	logging.Setup(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		slog.Error("server failed", "err", err)
		stop()
		app.Close()
		os.Exit(1)
	}
}
