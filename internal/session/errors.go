package session

import (
	"errors"
	"fmt"
)

// Error kinds returned by Login and Register.
var (
	ErrCredentials = errors.New("invalid credentials")
	ErrNetwork     = errors.New("network error")
)

// Flow errors.
var (
	ErrAlreadyInProgress = errors.New("authentication already in progress")
	ErrSuperseded        = errors.New("authentication superseded by a newer session change")
	ErrPersist           = errors.New("persist session")
)

// ErrCorruptState marks a persisted profile that cannot be turned into a session.
// It never leaves the package: rehydration handles it with a forced logout.
var ErrCorruptState = errors.New("corrupt persisted session")

// AuthError is a failed login or registration. Kind is ErrCredentials or ErrNetwork,
// Message is safe to show to the user.
type AuthError struct {
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Is matches the error kind.
func (e *AuthError) Is(target error) bool {
	return target == e.Kind
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
