// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/authapi"
	"github.com/IbrahimJenberu/smart-banking-system/internal/config"
	"github.com/IbrahimJenberu/smart-banking-system/internal/portal"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	store         *openedStore
	manager       *session.Manager
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	stopWatch     func()
}

// New creates a new application instance. The session is not rehydrated
// until Run, so gated routes answer "pending" until the store has been read.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Store.ConnectTimeout)
	defer connectCancel()

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	store, err := openStore(connectCtx, metricsCtx, cfg.Store)
	if err != nil {
		metricsCancel()
		return nil, fmt.Errorf("open session store: %w", err)
	}

	bank, err := authapi.NewClient(authapi.Config{
		BaseURL:   cfg.BankAPI.BaseURL,
		Timeout:   cfg.BankAPI.Timeout,
		RateLimit: cfg.BankAPI.RateLimit,
		Burst:     cfg.BankAPI.Burst,
	})
	if err != nil {
		store.close()
		metricsCancel()
		return nil, fmt.Errorf("create banking api client: %w", err)
	}

	manager := session.NewManager(store.store, bank, logger)

	app := &App{
		config:        cfg,
		logger:        logger,
		store:         store,
		manager:       manager,
		metricsCancel: metricsCancel,
		stopWatch:     portal.Watch(manager, logger),
	}

	app.server = &http.Server{
		Addr: fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: portal.NewRouter(portal.Config{
			Sessions:       manager,
			Logger:         logger,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			Ready:          store.ping,
		}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("portal configured",
		"store_driver", cfg.Store.Driver,
		"bank_api", cfg.BankAPI.BaseURL,
	)
	return app, nil
}

// Run rehydrates the session in the background and serves until Shutdown.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.Store.ConnectTimeout)
		defer cancel()
		state := a.manager.Rehydrate(ctx)
		a.logger.Info("session rehydrated", "status", state.Status.String())
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application. The persisted session is
// kept so the next start can rehydrate it.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	a.stopWatch()
	a.metricsCancel()
	a.store.close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Sessions returns the session manager.
func (a *App) Sessions() *session.Manager {
	return a.manager
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", "portal")
	slog.SetDefault(logger)
	return logger
}
