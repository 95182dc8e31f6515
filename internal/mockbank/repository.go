package mockbank

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
)

// Account is a banking API user as the mockbank stores it.
type Account struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
}

// Repository stores accounts.
type Repository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
}

// MemoryRepository keeps accounts in process memory.
// Usernames are unique as given; emails are unique case-insensitively.
type MemoryRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byUsername map[string]*Account
	emails     map[string]struct{}
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:     1,
		byUsername: make(map[string]*Account),
		emails:     make(map[string]struct{}),
	}
}

// CreateAccount assigns the next ID and stores a copy of account.
func (r *MemoryRepository) CreateAccount(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[account.Username]; ok {
		return ErrUsernameExists
	}
	email := strings.ToLower(account.Email)
	if _, ok := r.emails[email]; ok {
		return ErrEmailExists
	}

	account.ID = r.nextID
	account.CreatedAt = time.Now().UTC()
	r.nextID++

	stored := *account
	r.byUsername[account.Username] = &stored
	r.emails[email] = struct{}{}
	return nil
}

// GetAccountByUsername returns a copy of the account.
func (r *MemoryRepository) GetAccountByUsername(_ context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byUsername[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	found := *account
	return &found, nil
}
