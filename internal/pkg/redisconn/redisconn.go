// Package redisconn opens the go-redis client used by the redis session store.
package redisconn

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/retry"
	"github.com/redis/go-redis/v9"
)

// Config contains Redis connection configuration.
type Config struct {
	URL             string
	ConnectAttempts int
}

// Connect parses the URL and pings the server, retrying on the
// retry.Backoff schedule.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	attempts := max(cfg.ConnectAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(opts)
		err := client.Ping(ctx).Err()
		if err == nil {
			slog.Info("connected to redis", "attempts", attempt)
			return client, nil
		}
		lastErr = err
		_ = client.Close()

		if attempt == attempts {
			break
		}
		backoff := retry.Backoff(attempt)
		slog.Warn("redis not ready, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", err,
		)
		if err := retry.Sleep(ctx, backoff); err != nil {
			return nil, fmt.Errorf("connection cancelled: %w", err)
		}
	}

	return nil, fmt.Errorf("connect to redis after %d attempts: %w", attempts, lastErr)
}
