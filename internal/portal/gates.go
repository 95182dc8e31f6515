package portal

import (
	"net/http"

	"github.com/IbrahimJenberu/smart-banking-system/internal/gate"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/ctxlog"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/httputil"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/metrics"
)

// requireSession applies gate.Auth to the subtree.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := gate.Auth(h.sessions.State(), r.URL.RequestURI())
		h.enforce(w, r, "auth", d, next)
	})
}

// requireRole applies g to the subtree.
func (h *Handler) requireRole(g *gate.RoleGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(h.sessions.State(), r.URL.RequestURI())
			h.enforce(w, r, "role", d, next)
		})
	}
}

func (h *Handler) enforce(w http.ResponseWriter, r *http.Request, name string, d gate.Decision, next http.Handler) {
	metrics.GateDecisions.WithLabelValues(name, d.Outcome.String()).Inc()

	switch d.Outcome {
	case gate.Allow:
		next.ServeHTTP(w, r)
	case gate.Redirect:
		ctxlog.FromContext(r.Context()).Debug("gate redirect",
			"gate", name,
			"path", r.URL.Path,
			"location", d.Target(),
		)
		http.Redirect(w, r, d.Target(), http.StatusFound)
	default:
		w.Header().Set("Retry-After", "1")
		httputil.JSON(w, http.StatusServiceUnavailable, Page{Page: "pending", Title: "Loading"})
	}
}
