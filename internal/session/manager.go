// Package session owns the portal's authenticated session: it rehydrates it from
// a Store at startup, performs login, registration and logout, and publishes every
// state transition to subscribers.
//
// Only the Manager reads or writes the Store. Gates and the router observe the
// session through State and Subscribe.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/IbrahimJenberu/smart-banking-system/internal/authapi"
	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
)

const (
	opLogin    = "login"
	opRegister = "register"
)

const (
	msgLoginFailed    = "Login failed. Please check your credentials."
	msgRegisterFailed = "Registration failed. Please try again."
	msgNetwork        = "The bank could not be reached. Please try again."
	msgMissingFields  = "Username and password are required."
)

// Authenticator issues authentication requests to the banking API.
type Authenticator interface {
	Login(ctx context.Context, req authapi.LoginRequest) (*authapi.AuthResponse, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.AuthResponse, error)
}

// Observer receives every state transition.
type Observer func(State)

type subscription struct {
	id int
	fn Observer
}

// Manager is the single owner of the session state.
//
// Transitions are linearized by mu, which also covers every Store write, so the
// persisted record and the published state never disagree. Observers run after mu
// is released but while notifyMu is held, which keeps delivery in commit order.
// An observer must not call Login, Register or Logout inline.
type Manager struct {
	store  Store
	auth   Authenticator
	logger *slog.Logger

	state atomic.Pointer[State]

	mu         sync.Mutex
	notifyMu   sync.Mutex
	epoch      uint64
	pending    uint64
	rehydrated bool
	observers  []subscription
	nextID     int
}

// NewManager creates a manager in the Loading state.
func NewManager(store Store, auth Authenticator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:  store,
		auth:   auth,
		logger: logger.With("component", "session"),
	}
	initial := Loading()
	m.state.Store(&initial)
	return m
}

// State returns the current snapshot. It never blocks on I/O.
func (m *Manager) State() State {
	return *m.state.Load()
}

// Subscribe registers fn for every subsequent transition.
// The returned function removes the subscription; calling it more than once is safe.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers = append(m.observers, subscription{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.observers = slices.DeleteFunc(m.observers, func(s subscription) bool {
				return s.id == id
			})
		})
	}
}

// Rehydrate restores the session persisted by a previous process.
// Only the first call reads the store; later calls return the current state.
// It always resolves to Unauthenticated or Authenticated, never to an error:
// a corrupt profile is cleared from the store as a forced logout.
func (m *Manager) Rehydrate(ctx context.Context) State {
	m.mu.Lock()
	if m.rehydrated {
		m.mu.Unlock()
		return m.State()
	}
	m.rehydrated = true
	m.mu.Unlock()

	rec, loadErr := m.store.Load(ctx)

	m.mu.Lock()
	if m.State().Status != StatusLoading {
		// A login or logout settled the state while the store was being read.
		m.mu.Unlock()
		recordRehydration("discarded")
		return m.State()
	}

	if loadErr != nil {
		m.logger.Error("failed to load persisted session", "error", loadErr)
		recordRehydration("store_error")
		m.publishLocked(Unauthenticated())
		return m.State()
	}

	sess, ok, err := decodeRecord(rec)
	switch {
	case err != nil:
		m.logger.Warn("persisted session is corrupt, forcing logout", "error", err)
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.logger.Error("failed to clear corrupt session", "error", clearErr)
		}
		recordRehydration("corrupt")
		m.publishLocked(Unauthenticated())
	case !ok:
		recordRehydration("unauthenticated")
		m.publishLocked(Unauthenticated())
	default:
		m.logger.Info("session restored",
			"user_id", sess.User.ID,
			"role", sess.User.Role,
		)
		recordRehydration("authenticated")
		m.publishLocked(Authenticated(sess))
	}
	return m.State()
}

// Login authenticates with the banking API and, on success, persists and
// publishes the new session before returning its role.
func (m *Manager) Login(ctx context.Context, username, password string) (domain.Role, error) {
	if username == "" || password == "" {
		recordAuthAttempt(opLogin, "invalid_input")
		return "", &AuthError{Op: opLogin, Kind: ErrCredentials, Message: msgMissingFields}
	}

	return m.authenticate(ctx, opLogin, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.auth.Login(ctx, authapi.LoginRequest{Username: username, Password: password})
	})
}

// Register creates an account with the banking API and signs it in.
// Field validation is the caller's responsibility.
func (m *Manager) Register(ctx context.Context, req authapi.RegisterRequest) (domain.Role, error) {
	return m.authenticate(ctx, opRegister, func(ctx context.Context) (*authapi.AuthResponse, error) {
		return m.auth.Register(ctx, req)
	})
}

// Logout clears the store and transitions to Unauthenticated regardless of the
// current state. Any login or registration still in flight is superseded.
// The state transition happens even when clearing the store fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.epoch++
	m.pending = 0

	var err error
	if clearErr := m.store.Clear(ctx); clearErr != nil {
		m.logger.Error("failed to clear persisted session", "error", clearErr)
		err = fmt.Errorf("clear session store: %w", clearErr)
	}

	if m.State().Status == StatusUnauthenticated {
		m.mu.Unlock()
		return err
	}

	m.logger.Info("session ended")
	m.publishLocked(Unauthenticated())
	return err
}

func (m *Manager) authenticate(
	ctx context.Context,
	op string,
	call func(context.Context) (*authapi.AuthResponse, error),
) (domain.Role, error) {
	epoch, err := m.begin()
	if err != nil {
		recordAuthAttempt(op, "in_progress")
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer m.finish(epoch)

	resp, err := call(ctx)
	if err != nil {
		return "", m.failure(op, err)
	}

	sess, err := sessionFromResponse(resp)
	if err != nil {
		return "", m.failure(op, err)
	}

	if err := m.commit(ctx, op, epoch, sess); err != nil {
		return "", err
	}

	recordAuthAttempt(op, "success")
	return sess.User.Role, nil
}

// begin claims the single in-flight slot and returns the epoch the result must match.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending != 0 {
		return 0, ErrAlreadyInProgress
	}
	m.epoch++
	m.pending = m.epoch
	return m.epoch, nil
}

func (m *Manager) finish(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == epoch {
		m.pending = 0
	}
}

func (m *Manager) commit(ctx context.Context, op string, epoch uint64, sess domain.Session) error {
	rec, err := encodeRecord(sess)
	if err != nil {
		recordAuthAttempt(op, "persist_error")
		return fmt.Errorf("%s: %w: %w", op, ErrPersist, err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Info("discarding stale authentication result", "op", op)
		recordAuthAttempt(op, "superseded")
		return fmt.Errorf("%s: %w", op, ErrSuperseded)
	}

	if err := m.store.Save(ctx, rec); err != nil {
		m.mu.Unlock()
		m.logger.Error("failed to persist session", "op", op, "error", err)
		recordAuthAttempt(op, "persist_error")
		return fmt.Errorf("%s: %w: %w", op, ErrPersist, err)
	}

	m.pending = 0
	m.logger.Info("session established",
		"op", op,
		"user_id", sess.User.ID,
		"role", sess.User.Role,
	)
	m.publishLocked(Authenticated(sess))
	return nil
}

// failure converts an authentication failure into an *AuthError.
func (m *Manager) failure(op string, err error) error {
	authErr := &AuthError{Op: op, Kind: ErrCredentials, Err: err}

	var apiErr *authapi.APIError
	switch {
	case errors.Is(err, authapi.ErrTransport):
		authErr.Kind = ErrNetwork
		authErr.Message = msgNetwork
	case errors.As(err, &apiErr) && apiErr.ServerSide():
		authErr.Kind = ErrNetwork
		authErr.Message = msgNetwork
	case errors.As(err, &apiErr) && apiErr.Message != "":
		authErr.Message = apiErr.Message
	case op == opRegister:
		authErr.Message = msgRegisterFailed
	default:
		authErr.Message = msgLoginFailed
	}

	result := "credentials"
	if authErr.Kind == ErrNetwork {
		result = "network"
	}
	recordAuthAttempt(op, result)
	m.logger.Warn("authentication failed", "op", op, "kind", authErr.Kind, "error", err)

	return authErr
}

// publishLocked stores next, releases mu and notifies observers in order.
// mu must be held on entry; it is released on return.
func (m *Manager) publishLocked(next State) {
	m.state.Store(&next)
	observers := slices.Clone(m.observers)

	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	recordTransition(next.Status)
	for _, o := range observers {
		o.fn(next)
	}
}
