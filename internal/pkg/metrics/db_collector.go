package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolStater is satisfied by *pgxpool.Pool.
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// RecordDBPoolMetrics copies the current pool counters into DBPoolConnections.
func RecordDBPoolMetrics(pool PoolStater) {
	stats := pool.Stat()

	DBPoolConnections.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stats.MaxConns()))
}

// CollectDBPoolMetrics records pool metrics every interval until ctx is done.
func CollectDBPoolMetrics(ctx context.Context, pool PoolStater, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	RecordDBPoolMetrics(pool)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			RecordDBPoolMetrics(pool)
		}
	}
}
