package mockbank

import (
	"log/slog"
	"net/http"

	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts h behind the request ID, logging and recovery middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(logger.With("component", "mockbank")))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.Text(w, http.StatusOK, "OK")
	})
	h.RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusNotFound, "not found")
	})
	return r
}
