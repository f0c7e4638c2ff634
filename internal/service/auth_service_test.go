package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialapi/internal/middleware"
	"socialapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-with-enough-entropy-0123456789"

type memoryBlacklist map[string]time.Duration

func newTestAuthService(users *userRepoStub) (*AuthService, memoryBlacklist) {
	blacklist := memoryBlacklist{}
	svc := NewAuthService(users, testSecret, time.Hour)
	svc.revoke = func(_ context.Context, jti string, ttl time.Duration) error {
		blacklist[jti] = ttl
		return nil
	}
	svc.revoked = func(_ context.Context, jti string) (bool, error) {
		_, ok := blacklist[jti]
		return ok, nil
	}
	return svc, blacklist
}

func TestAuthService_RegisterNormalizesAndHashes(t *testing.T) {
	users := noopUserRepo()
	var created *models.User
	users.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 11
		created = u
		return nil
	}
	svc, _ := newTestAuthService(users)

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:       "  Alice@Example.COM ",
		Username:    "alice",
		Password:    "Secret123!",
		PhoneNumber: "01012345678",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "010-1234-5678", created.PhoneNumber)
	assert.True(t, created.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("Secret123!")))
	assert.NotEmpty(t, res.Token)

	claims, err := middleware.ParseToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(11), claims.UserID)
	assert.NotEmpty(t, claims.JTI)
}

func TestAuthService_RegisterDuplicateIsValidationError(t *testing.T) {
	users := noopUserRepo()
	users.getByEmailFn = func(_ context.Context, _ string) (*models.User, error) {
		return &models.User{ID: 1}, nil
	}
	users.createFn = func(_ context.Context, _ *models.User) error {
		t.Fatal("create must not be called for a duplicate email")
		return nil
	}
	svc, _ := newTestAuthService(users)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Username: "alice", Password: "Secret123!"})
	assertCode(t, err, models.CodeValidation)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "email")
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	users := noopUserRepo()
	users.getByUsernameFn = func(_ context.Context, _ string) (*models.User, error) {
		return &models.User{ID: 1}, nil
	}
	svc, _ := newTestAuthService(users)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Username: "alice", Password: "Secret123!"})
	assertCode(t, err, models.CodeValidation)
	assert.Contains(t, err.Error(), "Username is already taken")
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123!"), bcrypt.MinCost)
	require.NoError(t, err)

	users := noopUserRepo()
	stored := &models.User{ID: 5, Email: "a@x.com", Password: string(hash), IsActive: true}
	users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "a@x.com" {
			return stored, nil
		}
		return nil, nil
	}
	var touched map[string]any
	users.updateFieldsFn = func(_ context.Context, id uint, fields map[string]any) error {
		assert.Equal(t, uint(5), id)
		touched = fields
		return nil
	}
	svc, _ := newTestAuthService(users)
	svc.now = fixedNow

	res, err := svc.Login(context.Background(), " A@X.com", "Secret123!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User.LastLoginAt)
	assert.Equal(t, fixedNow(), *res.User.LastLoginAt)
	assert.Equal(t, fixedNow(), touched["last_login_at"])

	_, err = svc.Login(context.Background(), "a@x.com", "wrong")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@x.com", "Secret123!")
	assertCode(t, err, models.CodeUnauthorized)

	stored.IsActive = false
	_, err = svc.Login(context.Background(), "a@x.com", "Secret123!")
	assertCode(t, err, models.CodeUnauthorized)
	assert.Contains(t, err.Error(), "deactivated")
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	users := noopUserRepo()
	svc, blacklist := newTestAuthService(users)
	ctx := context.Background()

	token, err := svc.issue(3)
	require.NoError(t, err)

	user, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)

	require.NoError(t, svc.Logout(ctx, claims))
	require.Contains(t, blacklist, claims.JTI)
	assert.Greater(t, blacklist[claims.JTI], 50*time.Minute)

	_, _, err = svc.Authenticate(ctx, token)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_AuthenticateRejects(t *testing.T) {
	users := noopUserRepo()
	svc, _ := newTestAuthService(users)
	ctx := context.Background()

	_, _, err := svc.Authenticate(ctx, "")
	assertCode(t, err, models.CodeUnauthorized)

	_, _, err = svc.Authenticate(ctx, "not-a-jwt")
	assertCode(t, err, models.CodeUnauthorized)

	foreign, err := middleware.SignToken("some-other-secret-0123456789abcdef", 3, "x", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, foreign)
	assertCode(t, err, models.CodeUnauthorized)

	token, err := svc.issue(3)
	require.NoError(t, err)

	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	_, _, err = svc.Authenticate(ctx, token)
	assertCode(t, err, models.CodeUnauthorized)

	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, IsActive: false}, nil
	}
	_, _, err = svc.Authenticate(ctx, token)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_BlacklistFailureFailsOpen(t *testing.T) {
	svc, _ := newTestAuthService(noopUserRepo())
	svc.revoked = func(_ context.Context, _ string) (bool, error) {
		return false, errors.New("redis down")
	}

	token, err := svc.issue(3)
	require.NoError(t, err)
	user, _, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)
}

func TestAuthService_IssueWithoutSecret(t *testing.T) {
	svc := NewAuthService(noopUserRepo(), "", 0)
	assert.Equal(t, 24*time.Hour, svc.tokenTTL)
	_, err := svc.issue(1)
	assertCode(t, err, models.CodeInternal)
}
