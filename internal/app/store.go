package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/config"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/metrics"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/postgres"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/redisconn"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session/file"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session/memory"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session/pgstore"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session/redisstore"
)

const dbMetricsInterval = 15 * time.Second

// openedStore is a session store and the resources backing it.
type openedStore struct {
	store session.Store
	close func()
}

// openStore connects the configured backend. metricsCtx bounds background
// collectors started for it.
func openStore(ctx, metricsCtx context.Context, cfg config.StoreConfig) (*openedStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return &openedStore{store: memory.NewStore(), close: func() {}}, nil

	case config.DriverFile:
		store, err := file.NewStore(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open session file: %w", err)
		}
		slog.Info("session store opened", "driver", cfg.Driver, "path", store.Path())
		return &openedStore{store: store, close: func() {}}, nil

	case config.DriverRedis:
		client, err := redisconn.Connect(ctx, redisconn.Config{
			URL:             cfg.RedisURL,
			ConnectAttempts: cfg.ConnectAttempts,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store, err := redisstore.NewStore(client, cfg.RedisKey)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &openedStore{store: store, close: func() { _ = client.Close() }}, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			URL:             cfg.PostgresURL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnectAttempts: cfg.ConnectAttempts,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		// Migrate opens its own connection; Connect has already waited for the database.
		if err := pgstore.Migrate(cfg.PostgresURL); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate session schema: %w", err)
		}
		store, err := pgstore.NewStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		go metrics.CollectDBPoolMetrics(metricsCtx, pool, dbMetricsInterval)
		return &openedStore{store: store, close: pool.Close}, nil

	default:
		return nil, fmt.Errorf("unknown session store driver %q", cfg.Driver)
	}
}

// ping probes the store when it is backed by a service.
func (s *openedStore) ping(ctx context.Context) error {
	if p, ok := s.store.(session.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
