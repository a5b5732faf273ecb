package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/metrics"
	"github.com/nkiryanov/digibank/internal/repository"
	"github.com/nkiryanov/digibank/internal/repository/memory"
	"github.com/nkiryanov/digibank/internal/service/account"
	"github.com/nkiryanov/digibank/internal/service/admin"
	"github.com/nkiryanov/digibank/internal/service/auth"
	"github.com/nkiryanov/digibank/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/digibank/internal/service/ledger"
	"github.com/nkiryanov/digibank/internal/service/transfer"
	"github.com/nkiryanov/digibank/internal/service/user"
)

// Server with production services on top of in-memory storage
type testApp struct {
	url     string
	storage repository.Storage
	users   *user.UserService
	auth    *auth.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	storage := memory.NewStorage()
	l := logger.NewNoOpLogger()
	m := metrics.New()

	users := user.NewService(user.Config{Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}}, storage)

	tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
	require.NoError(t, err, "token manager should be created without errors")

	as, err := auth.NewService(auth.Config{}, tm, users)
	require.NoError(t, err, "auth service starting error")

	router := NewRouter(Services{
		Auth:      as,
		Accounts:  account.NewService(storage, nil),
		Transfers: transfer.NewEngine(storage, l, m),
		Ledger:    ledger.NewService(storage),
		Admin:     admin.NewService(storage, l),
	}, l, m)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testApp{url: srv.URL, storage: storage, users: users, auth: as}
}

// Make request with optional Authorization header value and JSON body
func (a *testApp) call(t *testing.T, method string, path string, access string, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, a.url+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", access)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(data)
}

// Register user and return value of Authorization header to use in next requests
func (a *testApp) register(t *testing.T, username string, password string) string {
	t.Helper()

	resp, body := a.call(t, http.MethodPost, "/api/auth/register", "", `{"login": "`+username+`", "password": "`+password+`"}`)
	require.Equalf(t, http.StatusOK, resp.StatusCode, "register failed. Body: %s", body)

	return resp.Header.Get("Authorization")
}

func (a *testApp) login(t *testing.T, username string, password string) string {
	t.Helper()

	resp, body := a.call(t, http.MethodPost, "/api/auth/login", "", `{"login": "`+username+`", "password": "`+password+`"}`)
	require.Equalf(t, http.StatusOK, resp.StatusCode, "login failed. Body: %s", body)

	return resp.Header.Get("Authorization")
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()

	var v T
	require.NoErrorf(t, json.Unmarshal([]byte(body), &v), "body is not expected json: %s", body)
	return v
}
