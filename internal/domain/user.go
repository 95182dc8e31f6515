package domain

import "errors"

// ErrUnknownRole is returned when a role string is not one of the known roles.
var ErrUnknownRole = errors.New("unknown role")

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
)

// Roles returns every valid role.
func Roles() []Role {
	return []Role{RoleCustomer, RoleAdmin, RoleManager}
}

// ParseRole converts a raw value received from the network or from storage.
// Matching is exact: "customer" or " ADMIN" are rejected.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleAdmin, RoleManager:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// LandingPage returns the default destination for the role.
// Returns an empty string for an invalid role.
func (r Role) LandingPage() string {
	switch r {
	case RoleCustomer:
		return "/customer/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleManager:
		return "/manager/dashboard"
	default:
		return ""
	}
}

// User is the profile of the signed-in portal user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Session is the credential and identity held by the portal after authentication.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether s is a complete session: a token and a user with a known role.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.Role.Valid()
}
