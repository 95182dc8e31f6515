// Package mockbank is a local stand-in for the authentication endpoints of the
// banking API. It backs cmd/mockbank and end-to-end tests of the portal.
package mockbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is a validated registration.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// LoginInput is a login attempt.
type LoginInput struct {
	Username string
	Password string
}

// AuthResult is what a successful login or registration returns.
type AuthResult struct {
	Token   string
	Account *Account
}

// SeedAccount is an account created at startup with a chosen role.
type SeedAccount struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// Service implements account registration and login.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	cost   int
}

// NewService creates a service. cost is the bcrypt cost; 0 selects bcrypt.DefaultCost.
func NewService(repo Repository, tokens *TokenIssuer, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, tokens: tokens, cost: cost}
}

// Register creates a CUSTOMER account and signs it in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	account := &Account{
		Username:    input.Username,
		Email:       input.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		PhoneNumber: input.PhoneNumber,
		Role:        domain.RoleCustomer,
	}
	if err := s.create(ctx, account, input.Password); err != nil {
		return nil, err
	}

	slog.Info("account registered", "user_id", account.ID, "username", account.Username)
	return s.issue(account)
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	account, err := s.repo.GetAccountByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(account)
}

// Seed creates accounts that do not exist yet.
func (s *Service) Seed(ctx context.Context, seeds []SeedAccount) error {
	for _, seed := range seeds {
		if !seed.Role.Valid() {
			return fmt.Errorf("seed %s: %w", seed.Username, domain.ErrUnknownRole)
		}
		account := &Account{Username: seed.Username, Email: seed.Email, Role: seed.Role}
		err := s.create(ctx, account, seed.Password)
		switch {
		case errors.Is(err, ErrUsernameExists), errors.Is(err, ErrEmailExists):
			continue
		case err != nil:
			return fmt.Errorf("seed %s: %w", seed.Username, err)
		}
		slog.Info("seeded account", "username", account.Username, "role", account.Role)
	}
	return nil
}

func (s *Service) create(ctx context.Context, account *Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = string(hash)

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Service) issue(account *Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: account}, nil
}
