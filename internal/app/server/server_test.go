package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empdir/internal/domain/auth"
	"empdir/internal/domain/directory"
	"empdir/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	hash, err := auth.HashPassword("client-secret")
	require.NoError(t, err)
	return config.Config{
		Environment:          "test",
		StoreDriver:          config.StoreMemory,
		JWTSecret:            "server-secret",
		AuthClientID:         "directory-client",
		AuthClientSecretHash: hash,
		TokenTTL:             time.Hour,
		MailQueueSize:        8,
		MaxBodyBytes:         1 << 20,
		RateLimitPerMinute:   1000,
		MaxHierarchyDepth:    16,
		MetricsEnabled:       true,
	}
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestDirectoryJourney(t *testing.T) {
	app := NewWithStore(testConfig(t), directory.NewMemoryStore())
	defer app.Close()

	rec, env := call(t, app.Router, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"clientId":     "directory-client",
		"clientSecret": "client-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok auth.Token
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(t, tok.AccessToken)

	rec, _ = call(t, app.Router, http.MethodPost, "/api/v1/employees", "", map[string]string{
		"employeeName": "Anon", "phoneNumber": "1", "email": "anon@example.com",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = call(t, app.Router, http.MethodPost, "/api/v1/employees", tok.AccessToken, map[string]string{
		"employeeName": "Grace", "phoneNumber": "555-0001", "email": "grace@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &created))
	bossID := created["id"]

	rec, env = call(t, app.Router, http.MethodPost, "/api/v1/employees", tok.AccessToken, map[string]string{
		"employeeName": "Alan", "phoneNumber": "555-0002", "email": "alan@example.com", "reportsTo": bossID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &created))
	reportID := created["id"]

	rec, env = call(t, app.Router, http.MethodPost, "/api/v1/employees/manager", "", map[string]any{
		"employeeId": reportID, "level": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var manager directory.EmployeeView
	require.NoError(t, json.Unmarshal(env.Data, &manager))
	assert.Equal(t, bossID, manager.ID)

	rec, _ = call(t, app.Router, http.MethodGet, "/api/v1/employees/"+reportID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	app := NewWithStore(testConfig(t), directory.NewMemoryStore())
	defer app.Close()

	rec, _ := call(t, app.Router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, app.Router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, app.Router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "empdir_http_requests_total")
}

type downStore struct {
	*directory.MemoryStore
}

func (downStore) Ping(context.Context) error {
	return errors.Join(directory.ErrStoreUnavailable, errors.New("connection refused"))
}

func TestReadyzReportsStoreOutage(t *testing.T) {
	app := NewWithStore(testConfig(t), downStore{directory.NewMemoryStore()})
	defer app.Close()

	rec, _ := call(t, app.Router, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOpenDeploymentWithoutSecretAllowsWrites(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = ""
	cfg.MetricsEnabled = false
	app := NewWithStore(cfg, directory.NewMemoryStore())
	defer app.Close()

	rec, _ := call(t, app.Router, http.MethodPost, "/api/v1/employees", "", map[string]string{
		"employeeName": "Open", "phoneNumber": "1", "email": "open@example.com",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = call(t, app.Router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := call(t, app.Router, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"clientId": "directory-client", "clientSecret": "client-secret",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, _, err := openStore(context.Background(), config.Config{StoreDriver: "couch"})
	require.Error(t, err)

	store, closers, err := openStore(context.Background(), config.Config{StoreDriver: config.StoreMemory})
	require.NoError(t, err)
	assert.Empty(t, closers)
	assert.IsType(t, &directory.MemoryStore{}, store)
}
