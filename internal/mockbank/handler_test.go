package mockbank

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestBank(t *testing.T) *testutil.Client {
	t.Helper()
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	service := NewService(NewMemoryRepository(), issuer, bcrypt.MinCost)

	srv := httptest.NewServer(NewRouter(NewHandler(service), slog.Default()))
	t.Cleanup(srv.Close)

	return testutil.NewClientWithValidation(t, srv.URL, testutil.ModulePath(t, testutil.BankingAuthSpec))
}

func register(t *testing.T, client *testutil.Client, body map[string]string) *http.Response {
	t.Helper()
	resp, err := client.POST("/auth/register", body)
	require.NoError(t, err)
	return resp
}

func TestHandler_RegisterThenLogin(t *testing.T) {
	client := newTestBank(t)

	resp := register(t, client, map[string]string{
		"username":    "alice",
		"email":       "alice@example.com",
		"password":    "Secret#123",
		"firstName":   "Alice",
		"lastName":    "Doe",
		"phoneNumber": "+251911234567",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var registered AuthResponse
	testutil.DecodeJSON(t, resp, &registered)
	assert.Equal(t, "alice", registered.Username)
	assert.Equal(t, "CUSTOMER", registered.Role)
	assert.NotEmpty(t, registered.Token)

	resp, err := client.POST("/auth/login", map[string]string{"username": "alice", "password": "Secret#123"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loggedIn AuthResponse
	testutil.DecodeJSON(t, resp, &loggedIn)
	assert.Equal(t, registered.UserID, loggedIn.UserID)
}

func TestHandler_Errors(t *testing.T) {
	client := newTestBank(t)
	resp := register(t, client, map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "Secret#123",
		"firstName": "Alice", "lastName": "Doe",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	tests := []struct {
		name       string
		path       string
		body       map[string]string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "wrong password",
			path:       "/auth/login",
			body:       map[string]string{"username": "alice", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid username or password",
		},
		{
			name: "duplicate username",
			path: "/auth/register",
			body: map[string]string{
				"username": "alice", "email": "other@example.com", "password": "Secret#123",
				"firstName": "A", "lastName": "B",
			},
			wantStatus: http.StatusConflict,
			wantMsg:    "Username is already taken",
		},
		{
			name:       "missing fields",
			path:       "/auth/register",
			body:       map[string]string{"username": "bob"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Requests here are deliberately outside the schema; responses are still checked.
			resp, err := client.POST(tt.path, tt.body)
			require.NoError(t, err)

			var body struct {
				Message string `json:"message"`
			}
			testutil.DecodeJSON(t, resp, &body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestHandler_InvalidJSON(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	router := NewRouter(NewHandler(NewService(NewMemoryRepository(), issuer, bcrypt.MinCost)), slog.Default())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"invalid json"}`, rec.Body.String())
}
