package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBank starts a server that checks every request against the auth API document.
func newBank(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	validator := testutil.NewOpenAPIValidator(t, testutil.ModulePath(t, testutil.BankingAuthSpec))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validator.ValidateRequest(t, r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second, RateLimit: 100, Burst: 10})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{name: "empty", baseURL: ""},
		{name: "no scheme", baseURL: "bank.local"},
		{name: "ftp", baseURL: "ftp://bank.local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Config{BaseURL: tt.baseURL})
			assert.Error(t, err)
		})
	}
}

func TestClient_Login(t *testing.T) {
	var got LoginRequest
	client := newBank(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, http.StatusOK, `{"token":"t1","userId":42,"username":"alice","email":"a@x.com","role":"CUSTOMER"}`)
	})

	resp, err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, LoginRequest{Username: "alice", Password: "pw"}, got)
	assert.Equal(t, &AuthResponse{Token: "t1", UserID: 42, Username: "alice", Email: "a@x.com", Role: "CUSTOMER"}, resp)
}

func TestClient_Register(t *testing.T) {
	var got RegisterRequest
	client := newBank(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(w, http.StatusOK, `{"token":"t2","userId":7,"username":"bob","email":"b@x.com","role":"CUSTOMER"}`)
	})

	req := RegisterRequest{
		Username:    "bob",
		Email:       "b@x.com",
		Password:    "Secret#123",
		FirstName:   "Bob",
		LastName:    "Builder",
		PhoneNumber: "+251911234567",
	}
	resp, err := client.Register(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, req, got)
	assert.Equal(t, "t2", resp.Token)
}

func TestClient_RegisterOmitsEmptyPhone(t *testing.T) {
	var raw map[string]any
	client := newBank(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		writeJSON(w, http.StatusOK, `{"token":"t3","userId":8,"username":"carol","email":"c@x.com","role":"CUSTOMER"}`)
	})

	_, err := client.Register(context.Background(), RegisterRequest{
		Username: "carol", Email: "c@x.com", Password: "Secret#123", FirstName: "C", LastName: "D",
	})

	require.NoError(t, err)
	assert.NotContains(t, raw, "phoneNumber")
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rejected with message",
			status: http.StatusUnauthorized,
			body:   `{"message":"Invalid username or password"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
				assert.Equal(t, "Invalid username or password", apiErr.Message)
				assert.False(t, apiErr.ServerSide())
			},
		},
		{
			name:   "server error without body",
			status: http.StatusBadGateway,
			body:   `upstream down`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Empty(t, apiErr.Message)
				assert.True(t, apiErr.ServerSide())
				assert.Contains(t, apiErr.Error(), "Bad Gateway")
			},
		},
		{
			name:   "throttled",
			status: http.StatusTooManyRequests,
			body:   `{"message":"slow down"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.True(t, apiErr.ServerSide())
			},
		},
		{
			name:   "success without token",
			status: http.StatusOK,
			body:   `{"userId":1,"username":"alice","role":"CUSTOMER"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMissingToken)
			},
		},
		{
			name:   "success with garbage",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newBank(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			resp, err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw"})

			assert.Nil(t, resp)
			tt.check(t, err)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw"})

	assert.ErrorIs(t, err, ErrTransport)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, "/auth/login", transportErr.Op)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), LoginRequest{Username: "alice", Password: "pw"})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_CancelledWhileThrottled(t *testing.T) {
	client := newBank(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"token":"t1","userId":1,"username":"a","email":"a@x.com","role":"CUSTOMER"}`)
	})
	client.limiter.SetBurst(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Login(ctx, LoginRequest{Username: "alice", Password: "pw"})

	assert.ErrorIs(t, err, ErrTransport)
}
