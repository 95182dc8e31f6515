package portal

import (
	"log/slog"

	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/metrics"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
)

// Subscriber is satisfied by *session.Manager.
type Subscriber interface {
	Subscribe(fn session.Observer) (unsubscribe func())
}

// Watch logs every session transition and mirrors it into the
// session-authenticated gauge. The returned function stops watching.
func Watch(sub Subscriber, logger *slog.Logger) (stop func()) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "router")

	return sub.Subscribe(func(s session.State) {
		sess, ok := s.Authenticated()
		if !ok {
			metrics.SessionAuthenticated.Set(0)
			logger.Info("session state changed", "status", s.Status.String())
			return
		}
		metrics.SessionAuthenticated.Set(1)
		logger.Info("session state changed",
			"status", s.Status.String(),
			"user_id", sess.User.ID,
			"role", sess.User.Role,
		)
	})
}
