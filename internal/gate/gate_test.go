package gate

import (
	"testing"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authenticatedAs(role domain.Role) session.State {
	return session.Authenticated(domain.Session{
		Token: "t1",
		User:  domain.User{ID: 1, Username: "alice", Email: "a@x.com", Role: role},
	})
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  Decision
	}{
		{
			name:  "loading renders placeholder",
			state: session.Loading(),
			want:  Decision{Outcome: Pending},
		},
		{
			name:  "unauthenticated redirects with return path",
			state: session.Unauthenticated(),
			want:  Decision{Outcome: Redirect, Location: "/login", ReturnTo: "/admin/dashboard"},
		},
		{
			name:  "authenticated allows",
			state: authenticatedAs(domain.RoleAdmin),
			want:  Decision{Outcome: Allow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Auth(tt.state, "/admin/dashboard"))
		})
	}
}

func TestRoleGate_EveryRole(t *testing.T) {
	for _, r := range domain.Roles() {
		t.Run(string(r), func(t *testing.T) {
			state := authenticatedAs(r)

			assert.Equal(t, Allow, MustRoleGate(r).Decide(state, "/x").Outcome)

			var others []domain.Role
			for _, o := range domain.Roles() {
				if o != r {
					others = append(others, o)
				}
			}
			got := MustRoleGate(others...).Decide(state, "/x")
			assert.Equal(t, Decision{Outcome: Redirect, Location: r.LandingPage()}, got)
		})
	}
}

func TestRoleGate_CustomerScenario(t *testing.T) {
	state := authenticatedAs(domain.RoleCustomer)

	assert.Equal(t, Allow, Auth(state, "/customer/dashboard").Outcome)
	assert.Equal(t, Allow, MustRoleGate(domain.RoleCustomer).Decide(state, "/customer/dashboard").Outcome)

	got := MustRoleGate(domain.RoleAdmin).Decide(state, "/admin/users")
	assert.Equal(t, "/customer/dashboard", got.Target())
}

func TestRoleGate_AdminOnManagerRoute(t *testing.T) {
	got := MustRoleGate(domain.RoleManager).Decide(authenticatedAs(domain.RoleAdmin), "/manager/reports")

	assert.Equal(t, Redirect, got.Outcome)
	assert.Equal(t, "/admin/dashboard", got.Target())
}

func TestRoleGate_LoadingAndUnauthenticated(t *testing.T) {
	g := MustRoleGate(domain.RoleCustomer)

	assert.Equal(t, Decision{Outcome: Pending}, g.Decide(session.Loading(), "/customer/loans"))
	assert.Equal(t,
		Decision{Outcome: Redirect, Location: "/login", ReturnTo: "/customer/loans"},
		g.Decide(session.Unauthenticated(), "/customer/loans"),
	)
}

func TestRoleGate_UnrecognizedRoleGoesToLogin(t *testing.T) {
	state := session.State{
		Status:  session.StatusAuthenticated,
		Session: domain.Session{Token: "t1", User: domain.User{Role: "customer"}},
	}

	got := MustRoleGate(domain.RoleCustomer).Decide(state, "/customer/dashboard")

	assert.Equal(t, Decision{Outcome: Redirect, Location: "/login"}, got)
}

func TestNewRoleGate_Validation(t *testing.T) {
	_, err := NewRoleGate()
	assert.ErrorIs(t, err, ErrNoRoles)

	_, err = NewRoleGate(domain.RoleAdmin, "OPERATOR")
	assert.ErrorIs(t, err, domain.ErrUnknownRole)

	g, err := NewRoleGate(domain.RoleAdmin, domain.RoleManager)
	require.NoError(t, err)
	assert.True(t, g.Allows(domain.RoleManager))
	assert.False(t, g.Allows("admin"), "matching is exact")

	assert.Panics(t, func() { MustRoleGate() })
}

func TestDecision_Target(t *testing.T) {
	d := Decision{Outcome: Redirect, Location: "/login", ReturnTo: "/admin/dashboard"}
	assert.Equal(t, "/login?from=%2Fadmin%2Fdashboard", d.Target())

	d = Decision{Outcome: Redirect, Location: "/customer/dashboard"}
	assert.Equal(t, "/customer/dashboard", d.Target())
}
