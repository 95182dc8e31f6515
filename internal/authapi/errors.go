package authapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Response errors.
var (
	ErrMissingToken      = errors.New("authentication response has no token")
	ErrMalformedResponse = errors.New("malformed authentication response")
)

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("transport failure")

// TransportError indicates the request never produced an HTTP response:
// dial failure, timeout, cancellation or throttling wait aborted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) true for any TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// APIError is a non-2xx response from the banking API.
// Message is the server-provided "message" field when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("banking api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("banking api error %d: %s", e.Status, http.StatusText(e.Status))
}

// ServerSide reports whether the failure is on the API side rather than a rejected request.
func (e *APIError) ServerSide() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}
