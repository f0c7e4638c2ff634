package server

import (
	"net/http"
	"testing"

	"socialapi/internal/cache"
	"socialapi/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	t.Run("success returns user and token", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/users/", fiber.Map{
			"email":            "Alice@Example.com",
			"username":         "alice",
			"password":         testPassword,
			"password_confirm": testPassword,
			"birth_date":       "1990-04-01",
		}, "")
		require.Equal(t, http.StatusCreated, status, env.Message)
		assert.Equal(t, "User registered", env.Message)

		var data struct {
			User  models.UserResponse `json:"user"`
			Token string              `json:"token"`
		}
		decode(t, env, &data)
		assert.Equal(t, "alice", data.User.Username)
		assert.Equal(t, "alice@example.com", data.User.Email)
		assert.NotEmpty(t, data.Token)
	})

	t.Run("duplicate email", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/users/", fiber.Map{
			"email":    "alice@example.com",
			"username": "alice2",
			"password": testPassword,
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, models.CodeValidation, env.ErrorCode)
	})

	t.Run("weak password reports the field", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/users/", fiber.Map{
			"email":    "bob@example.com",
			"username": "bob",
			"password": "short",
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)

		var data struct {
			Fields map[string]string `json:"fields"`
		}
		decode(t, env, &data)
		assert.Contains(t, data.Fields, "password")
	})

	t.Run("password confirmation mismatch", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/users/", fiber.Map{
			"email":            "carol@example.com",
			"username":         "carol",
			"password":         testPassword,
			"password_confirm": testPassword + "x",
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "password_confirm does not match", env.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/users/", "not an object", "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid request body", env.Message)
	})
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register("dave")

	t.Run("wrong password", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/auth/login/", fiber.Map{
			"email":    "dave1@example.com",
			"password": "Wrong-Pass123!",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, models.CodeUnauthorized, env.ErrorCode)
	})

	t.Run("success", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/auth/login/", fiber.Map{
			"email":    "DAVE1@example.com",
			"password": testPassword,
		}, "")
		require.Equal(t, http.StatusOK, status, env.Message)

		var data struct {
			Token string `json:"token"`
		}
		decode(t, env, &data)

		status, _ = api.do(http.MethodGet, "/api/v1/users/me/", nil, data.Token)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/users/me/"},
		{http.MethodPost, "/api/v1/posts/"},
		{http.MethodPost, "/api/v1/posts/1/like/"},
		{http.MethodGet, "/api/v1/admin/feature-flags/"},
	} {
		status, env := api.do(tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, status, tc.path)
		assert.Equal(t, models.CodeUnauthorized, env.ErrorCode, tc.path)
	}

	status, _ := api.do(http.MethodGet, "/api/v1/users/me/", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	api := newTestAPI(t)
	erin := api.register("erin")

	status, _ := api.do(http.MethodPost, "/api/v1/auth/logout/", nil, erin.Token)
	require.Equal(t, http.StatusOK, status)

	status, env := api.do(http.MethodGet, "/api/v1/users/me/", nil, erin.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestDeactivatedUserCannotAuthenticate(t *testing.T) {
	api := newTestAPI(t)
	frank := api.register("frank")

	status, _ := api.do(http.MethodDelete, "/api/v1/users/me/", nil, frank.Token)
	require.Equal(t, http.StatusOK, status)

	status, _ = api.do(http.MethodGet, "/api/v1/users/me/", nil, frank.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
}
