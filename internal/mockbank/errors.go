package mockbank

import "errors"

// Service errors.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameExists     = errors.New("username already taken")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
