package portal

import (
	"net/http"
	"strings"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/gate"
	"github.com/IbrahimJenberu/smart-banking-system/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LoginPath is where unauthenticated navigation ends up.
const LoginPath = gate.LoginPath

const expiredNotice = "Your session has expired. Please log in again."

// Page describes a view for the client shell to render.
type Page struct {
	Page     string       `json:"page"`
	Title    string       `json:"title"`
	User     *domain.User `json:"user,omitempty"`
	ReturnTo string       `json:"returnTo,omitempty"`
	Notice   string       `json:"notice,omitempty"`
}

// area is a role-gated subtree.
type area struct {
	prefix string
	role   domain.Role
	pages  []string
}

var areas = []area{
	{
		prefix: "/customer",
		role:   domain.RoleCustomer,
		pages:  []string{"dashboard", "accounts", "transactions", "transfers", "loans", "profile"},
	},
	{
		prefix: "/admin",
		role:   domain.RoleAdmin,
		pages:  []string{"dashboard", "users", "accounts", "loans", "audit"},
	},
	{
		prefix: "/manager",
		role:   domain.RoleManager,
		pages:  []string{"dashboard", "analytics", "high-value-transactions", "reports"},
	},
}

// title turns a route segment into a heading: "high-value-transactions" becomes
// "High Value Transactions". A Caser is not safe for concurrent use, so titles
// are computed while routes are registered.
func title(segment string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(segment, "-", " "))
}

func (h *Handler) registerArea(r chi.Router, a area) {
	roleGate := gate.MustRoleGate(a.role)
	dashboard := a.prefix + "/dashboard"

	r.Route(a.prefix, func(r chi.Router) {
		r.Use(httputil.NoStore)
		r.Use(h.requireSession)
		r.Use(h.requireRole(roleGate))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, dashboard, http.StatusFound)
		})
		for _, name := range a.pages {
			r.Get("/"+name, h.protectedPage(strings.TrimPrefix(a.prefix, "/")+"/"+name, title(name)))
		}
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			httputil.Error(w, http.StatusNotFound, "page not found")
		})
	})
}

func (h *Handler) protectedPage(page, pageTitle string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.sessions.State().Authenticated()
		if !ok {
			// Logged out between the gate and the handler.
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		user := sess.User
		httputil.JSON(w, http.StatusOK, Page{Page: page, Title: pageTitle, User: &user})
	}
}

func (h *Handler) staticPage(name string) http.HandlerFunc {
	page := Page{Page: name, Title: title(name)}
	return func(w http.ResponseWriter, _ *http.Request) {
		httputil.JSON(w, http.StatusOK, page)
	}
}
