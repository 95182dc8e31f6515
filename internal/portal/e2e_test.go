package portal_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/IbrahimJenberu/smart-banking-system/internal/authapi"
	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
	"github.com/IbrahimJenberu/smart-banking-system/internal/mockbank"
	"github.com/IbrahimJenberu/smart-banking-system/internal/portal"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session"
	"github.com/IbrahimJenberu/smart-banking-system/internal/session/file"
	"github.com/IbrahimJenberu/smart-banking-system/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func startMockBank(t *testing.T) string {
	t.Helper()
	issuer, err := mockbank.NewTokenIssuer("end-to-end-secret-of-at-least-32-bytes", time.Hour)
	require.NoError(t, err)
	service := mockbank.NewService(mockbank.NewMemoryRepository(), issuer, bcrypt.MinCost)
	require.NoError(t, service.Seed(context.Background(), []mockbank.SeedAccount{
		{Username: "mgr", Email: "mgr@bank.local", Password: "Manager#2024", Role: domain.RoleManager},
	}))

	srv := httptest.NewServer(mockbank.NewRouter(mockbank.NewHandler(service), slog.Default()))
	t.Cleanup(srv.Close)
	return srv.URL
}

// startPortal boots a portal process over the session file at path.
func startPortal(t *testing.T, bankURL, path string) (*testutil.Client, *session.Manager) {
	t.Helper()
	bank, err := authapi.NewClient(authapi.Config{BaseURL: bankURL, Timeout: 5 * time.Second, RateLimit: 50, Burst: 10})
	require.NoError(t, err)
	store, err := file.NewStore(path)
	require.NoError(t, err)

	manager := session.NewManager(store, bank, slog.Default())
	srv := httptest.NewServer(portal.NewRouter(portal.Config{Sessions: manager}))
	t.Cleanup(srv.Close)

	manager.Rehydrate(context.Background())
	return testutil.NewClient(t, srv.URL), manager
}

func TestEndToEnd_LoginSurvivesRestartUntilLogout(t *testing.T) {
	bankURL := startMockBank(t)
	path := filepath.Join(t.TempDir(), "session.json")

	// First process: sign in as a manager after being bounced from a protected page.
	client, _ := startPortal(t, bankURL, path)

	resp, err := client.GET("/manager/reports")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loginURL, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	from := loginURL.Query().Get("from")
	assert.Equal(t, "/manager/reports", from)

	resp, err = client.PostForm("/login", url.Values{"username": {"mgr"}, "password": {"Manager#2024"}, "from": {from}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/manager/reports", resp.Header.Get("Location"))

	resp, err = client.GET("/manager/reports")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second process over the same file: the session is rehydrated without the bank.
	restarted, manager := startPortal(t, "http://127.0.0.1:1", path)
	sess, ok := manager.State().Authenticated()
	require.True(t, ok)
	assert.Equal(t, domain.RoleManager, sess.User.Role)
	assert.Equal(t, "mgr", sess.User.Username)

	resp, err = restarted.GET("/customer/dashboard")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "/manager/dashboard", resp.Header.Get("Location"))

	resp, err = restarted.POST("/logout", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()

	// Third process: nothing left to restore.
	_, third := startPortal(t, bankURL, path)
	assert.Equal(t, session.StatusUnauthenticated, third.State().Status)
}

func TestEndToEnd_WrongPassword(t *testing.T) {
	client, manager := startPortal(t, startMockBank(t), filepath.Join(t.TempDir(), "session.json"))

	resp, err := client.PostForm("/login", url.Values{"username": {"mgr"}, "password": {"Manager#2025"}})
	require.NoError(t, err)

	var body errorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password", body.Error.Message)
	assert.Equal(t, session.StatusUnauthenticated, manager.State().Status)
}

func TestEndToEnd_BankUnreachable(t *testing.T) {
	client, _ := startPortal(t, "http://127.0.0.1:1", filepath.Join(t.TempDir(), "session.json"))

	resp, err := client.PostForm("/login", url.Values{"username": {"mgr"}, "password": {"Manager#2024"}})
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
