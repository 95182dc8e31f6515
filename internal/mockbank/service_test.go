package mockbank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-bytes"

// failingRepository fails every write.
type failingRepository struct {
	*MemoryRepository
	err error
}

func (f *failingRepository) CreateAccount(context.Context, *Account) error {
	return f.err
}

func newTestService(t *testing.T, repo Repository) (*Service, *TokenIssuer) {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	return NewService(repo, issuer, bcrypt.MinCost), issuer
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "Secret#123",
		FirstName: "Alice",
		LastName:  "Doe",
	}
}

func TestRegister_CreatesCustomer(t *testing.T) {
	// Arrange
	service, issuer := newTestService(t, NewMemoryRepository())

	// Act
	result, err := service.Register(context.Background(), validRegistration())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Account.ID)
	assert.Equal(t, domain.RoleCustomer, result.Account.Role)
	assert.NotEqual(t, "Secret#123", result.Account.PasswordHash)

	claims, err := issuer.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "CUSTOMER", claims.Role)
}

func TestRegister_Duplicates(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegisterInput)
		wantErr error
	}{
		{name: "same username", mutate: func(in *RegisterInput) { in.Email = "other@example.com" }, wantErr: ErrUsernameExists},
		{name: "same email different case", mutate: func(in *RegisterInput) {
			in.Username = "alice2"
			in.Email = "ALICE@example.com"
		}, wantErr: ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			service, _ := newTestService(t, NewMemoryRepository())
			_, err := service.Register(context.Background(), validRegistration())
			require.NoError(t, err)

			input := validRegistration()
			tt.mutate(&input)

			// Act
			result, err := service.Register(context.Background(), input)

			// Assert
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_RepositoryFails(t *testing.T) {
	// Arrange
	repo := &failingRepository{MemoryRepository: NewMemoryRepository(), err: errors.New("disk full")}
	service, _ := newTestService(t, repo)

	// Act
	result, err := service.Register(context.Background(), validRegistration())

	// Assert
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "disk full")
}

func TestLogin(t *testing.T) {
	service, _ := newTestService(t, NewMemoryRepository())
	_, err := service.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "alice", password: "Secret#123"},
		{name: "wrong password", username: "alice", password: "Secret#124", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "bob", password: "Secret#123", wantErr: ErrInvalidCredentials},
		{name: "username is case sensitive", username: "Alice", password: "Secret#123", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Login(context.Background(), LoginInput{Username: tt.username, Password: tt.password})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
			assert.Equal(t, "alice", result.Account.Username)
		})
	}
}

func TestSeed(t *testing.T) {
	// Arrange
	service, _ := newTestService(t, NewMemoryRepository())
	seeds := []SeedAccount{
		{Username: "admin", Email: "admin@bank.local", Password: "Admin#2024x", Role: domain.RoleAdmin},
		{Username: "manager", Email: "manager@bank.local", Password: "Manager#2024", Role: domain.RoleManager},
	}

	// Act
	require.NoError(t, service.Seed(context.Background(), seeds))
	require.NoError(t, service.Seed(context.Background(), seeds), "seeding twice is a no-op")

	// Assert
	result, err := service.Login(context.Background(), LoginInput{Username: "manager", Password: "Manager#2024"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, result.Account.Role)
}

func TestSeed_RejectsUnknownRole(t *testing.T) {
	service, _ := newTestService(t, NewMemoryRepository())

	err := service.Seed(context.Background(), []SeedAccount{
		{Username: "root", Email: "root@bank.local", Password: "x", Role: "SUPERUSER"},
	})

	assert.ErrorIs(t, err, domain.ErrUnknownRole)
}
