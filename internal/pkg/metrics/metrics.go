// Package metrics holds process-wide Prometheus collectors shared by the HTTP layer
// and the storage backends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric exported by the portal.
const Namespace = "portal"

var (
	// HTTPRequestDuration tracks HTTP request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status_code"},
	)

	// GateDecisions counts route gate outcomes.
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Route gate decisions by gate and outcome",
		},
		[]string{"gate", "outcome"},
	)

	// SessionAuthenticated is 1 while the portal holds a session, 0 otherwise.
	SessionAuthenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "authenticated",
			Help:      "Whether the portal currently holds an authenticated session",
		},
	)

	// DBPoolConnections tracks the postgres session store pool.
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Number of database connections by state",
		},
		[]string{"state"},
	)
)
