// Package gate decides whether a navigation target may render for the current
// session. Decisions are pure functions of session.State.
package gate

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
)

// LoginPath is the login destination used by both gates.
const LoginPath = "/login"

// ReturnParam is the query parameter carrying the originally requested location.
const ReturnParam = "from"

// ErrNoRoles is returned when a role gate is built without roles.
var ErrNoRoles = errors.New("role gate requires at least one role")

// Outcome is the kind of a gate decision.
type Outcome int

const (
	// Pending means rehydration has not resolved; render a placeholder, do not redirect.
	Pending Outcome = iota
	Allow
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating a gate.
// Location and ReturnTo are set only for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
	ReturnTo string
}

// Target returns the redirect URL, with the return path as a query parameter when set.
func (d Decision) Target() string {
	if d.ReturnTo == "" {
		return d.Location
	}
	return d.Location + "?" + url.Values{ReturnParam: {d.ReturnTo}}.Encode()
}

func toLogin(requested string) Decision {
	return Decision{Outcome: Redirect, Location: LoginPath, ReturnTo: requested}
}

// Auth gates a protected subtree on the presence of a session. requested is
// the location being navigated to, recorded so login can return there.
func Auth(state session.State, requested string) Decision {
	switch state.Status {
	case session.StatusLoading:
		return Decision{Outcome: Pending}
	case session.StatusAuthenticated:
		return Decision{Outcome: Allow}
	default:
		return toLogin(requested)
	}
}

// RoleGate permits a fixed set of roles.
type RoleGate struct {
	allowed map[domain.Role]struct{}
}

// NewRoleGate creates a gate for a non-empty set of known roles.
func NewRoleGate(roles ...domain.Role) (*RoleGate, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("role gate: %w: %q", domain.ErrUnknownRole, r)
		}
		allowed[r] = struct{}{}
	}
	return &RoleGate{allowed: allowed}, nil
}

// MustRoleGate is NewRoleGate for static route tables; it panics on an invalid set.
func MustRoleGate(roles ...domain.Role) *RoleGate {
	g, err := NewRoleGate(roles...)
	if err != nil {
		panic(err)
	}
	return g
}

// Allows reports whether role is in the gate's set. Matching is exact.
func (g *RoleGate) Allows(role domain.Role) bool {
	_, ok := g.allowed[role]
	return ok
}

// Decide evaluates the gate. A session whose role is denied is sent to that
// role's landing page; an unrecognized role is sent to login.
func (g *RoleGate) Decide(state session.State, requested string) Decision {
	switch state.Status {
	case session.StatusLoading:
		return Decision{Outcome: Pending}
	case session.StatusAuthenticated:
	default:
		return toLogin(requested)
	}

	role := state.Session.User.Role
	if g.Allows(role) {
		return Decision{Outcome: Allow}
	}
	if landing := role.LandingPage(); landing != "" {
		return Decision{Outcome: Redirect, Location: landing}
	}
	return Decision{Outcome: Redirect, Location: LoginPath}
}
