package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"socialapi/internal/cache"
	"socialapi/internal/config"
	"socialapi/internal/database"
	"socialapi/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Sup3r-Secret!"

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	cache.DisableLocal()
	os.Exit(m.Run())
}

// envelope mirrors models.Envelope with Data left raw for per-test decoding.
type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
}

type testAPI struct {
	t   *testing.T
	db  *gorm.DB
	app *fiber.App
	seq int
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	db, err := database.OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		JWTSecret:   "test-secret-with-enough-entropy",
		JWTTTLHours: 1,
		Env:         "test",
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &testAPI{t: t, db: db, app: srv.App()}
}

func (a *testAPI) do(method, path string, body any, token string) (int, envelope) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

type registered struct {
	ID    uint
	Token string
}

func (a *testAPI) register(username string) registered {
	a.t.Helper()
	a.seq++
	status, env := a.do(http.MethodPost, "/api/v1/users/", fiber.Map{
		"email":    fmt.Sprintf("%s%d@example.com", username, a.seq),
		"username": username,
		"password": testPassword,
	}, "")
	require.Equal(a.t, http.StatusCreated, status, env.Message)

	var data struct {
		User  models.UserResponse `json:"user"`
		Token string              `json:"token"`
	}
	decode(a.t, env, &data)
	return registered{ID: data.User.ID, Token: data.Token}
}

func (a *testAPI) registerAdmin(username string) registered {
	a.t.Helper()
	u := a.register(username)
	require.NoError(a.t, a.db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_admin", true).Error)
	return u
}

func decode(t *testing.T, env envelope, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestAPIRoot(t *testing.T) {
	api := newTestAPI(t)
	status, env := api.do(http.MethodGet, "/api/v1/", nil, "")

	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Timestamp)

	var data struct {
		Endpoints map[string]string `json:"endpoints"`
	}
	decode(t, env, &data)
	assert.Equal(t, "/api/v1/posts/", data.Endpoints["posts"])
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	api := newTestAPI(t)
	status, env := api.do(http.MethodGet, "/api/v1/nope/", nil, "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, models.CodeNotFound, env.ErrorCode)
}

func TestHealthProbes(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := api.app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestNewServerWithDeps_RequiresDatabase(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}
