// Command mockbank serves a local stand-in for the banking API auth endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/config"
	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/mockbank"
)

func main() {
	configPath := flag.String("config", os.Getenv("PORTAL_CONFIG"), "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("mockbank failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "mockbank")

	issuer, err := mockbank.NewTokenIssuer(cfg.MockBank.JWTSecret, cfg.MockBank.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token issuer: %w", err)
	}
	service := mockbank.NewService(mockbank.NewMemoryRepository(), issuer, 0)

	seeds := make([]mockbank.SeedAccount, 0, len(cfg.MockBank.Users))
	for _, u := range cfg.MockBank.Users {
		role, err := domain.ParseRole(u.Role)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		seeds = append(seeds, mockbank.SeedAccount{Username: u.Username, Email: u.Email, Password: u.Password, Role: role})
	}
	if err := service.Seed(context.Background(), seeds); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.MockBank.Host, cfg.MockBank.Port),
		Handler:           mockbank.NewRouter(mockbank.NewHandler(service), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting mockbank", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
