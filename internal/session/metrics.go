package session

import (
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by resulting state",
		},
		[]string{"state"},
	)

	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "session",
			Name:      "auth_attempts_total",
			Help:      "Login and registration attempts by outcome",
		},
		[]string{"op", "result"},
	)

	rehydrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "session",
			Name:      "rehydrations_total",
			Help:      "Startup rehydrations by outcome",
		},
		[]string{"result"},
	)
)

func recordTransition(s Status) {
	transitions.WithLabelValues(s.String()).Inc()
}

func recordAuthAttempt(op, result string) {
	authAttempts.WithLabelValues(op, result).Inc()
}

func recordRehydration(result string) {
	rehydrations.WithLabelValues(result).Inc()
}
