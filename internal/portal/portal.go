// Package portal is the HTTP router of the banking portal. It serves the public
// auth pages and the role-gated customer, admin and manager areas, driven by a
// single session.Manager.
package portal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/authapi"
	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/ctxlog"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/httputil"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/validate"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/IbrahimJenberu/smart-banking-system/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// Sessions is the part of *session.Manager the router drives.
type Sessions interface {
	State() session.State
	Login(ctx context.Context, username, password string) (domain.Role, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (domain.Role, error)
	Logout(ctx context.Context) error
}

// Config holds the router's collaborators.
type Config struct {
	Sessions       Sessions
	Logger         *slog.Logger
	AllowedOrigins []string
	// Ready probes backing services for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Handler serves every portal route.
type Handler struct {
	sessions  Sessions
	logger    *slog.Logger
	ready     func(ctx context.Context) error
	validator *validator.Validate
}

// NewRouter builds the portal router.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		sessions:  cfg.Sessions,
		logger:    logger,
		ready:     cfg.Ready,
		validator: validate.New(),
	}

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)
	r.Use(httputil.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/version", h.versionInfo)

	h.registerPublicRoutes(r)
	for _, a := range areas {
		h.registerArea(r, a)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.Error(w, http.StatusNotFound, "page not found")
	})
	return r
}

func (h *Handler) registerPublicRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
	r.Get(LoginPath, h.loginPage)
	r.Post(LoginPath, h.login)
	r.Get("/register", h.registerPage)
	r.Post("/register", h.register)
	r.Post("/logout", h.logout)
	r.Get("/forgot-password", h.staticPage("forgot-password"))
	r.Get("/api/session", h.sessionState)
}

func (h *Handler) sessionState(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, h.sessions.State())
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.sessions.State().Status == session.StatusLoading {
		httputil.Text(w, http.StatusServiceUnavailable, "Session loading")
		return
	}
	if h.ready == nil {
		httputil.Text(w, http.StatusOK, "OK")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.ready(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Session store unavailable")
		return
	}
	httputil.Text(w, http.StatusOK, "OK")
}

func (h *Handler) versionInfo(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Info())
}
