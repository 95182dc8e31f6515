package session

import (
	"encoding/json"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
)

// Status is the phase of the session state machine.
type Status int

const (
	StatusLoading Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. Session is zero unless
// Status is StatusAuthenticated.
type State struct {
	Status  Status
	Session domain.Session
}

// Loading is the state before rehydration resolves.
func Loading() State {
	return State{Status: StatusLoading}
}

// Unauthenticated is the state with no session.
func Unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

// Authenticated wraps a valid session.
func Authenticated(s domain.Session) State {
	return State{Status: StatusAuthenticated, Session: s}
}

// Authenticated returns the session when the state holds one.
func (s State) Authenticated() (domain.Session, bool) {
	if s.Status != StatusAuthenticated {
		return domain.Session{}, false
	}
	return s.Session, true
}

// MarshalJSON renders the state without the credential token.
func (s State) MarshalJSON() ([]byte, error) {
	out := struct {
		Status string       `json:"status"`
		User   *domain.User `json:"user,omitempty"`
	}{Status: s.Status.String()}

	if sess, ok := s.Authenticated(); ok {
		user := sess.User
		out.User = &user
	}
	return json.Marshal(out)
}
