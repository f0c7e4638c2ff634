// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"socialapi/internal/cache"
	"socialapi/internal/middleware"
	"socialapi/internal/models"
	"socialapi/internal/repository"
	"socialapi/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers accounts and issues and revokes access tokens.
type AuthService struct {
	users    repository.UserRepository
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
	revoke   func(ctx context.Context, jti string, ttl time.Duration) error
	revoked  func(ctx context.Context, jti string) (bool, error)
}

// RegisterInput is a validated sign-up request.
type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	Nickname    string
	PhoneNumber string
	BirthDate   *time.Time
}

// AuthResult pairs a user with a freshly issued token.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func NewAuthService(users repository.UserRepository, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
		revoke:   cache.RevokeToken,
		revoked:  cache.IsRevoked,
	}
}

// Register creates the account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewFieldValidationError("User with this email already exists",
			map[string]string{"email": "is already registered"})
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewFieldValidationError("Username is already taken",
			map[string]string{"username": "is already taken"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:       email,
		Username:    username,
		Password:    string(hashed),
		Nickname:    strings.TrimSpace(in.Nickname),
		PhoneNumber: validation.FormatPhoneNumber(in.PhoneNumber),
		BirthDate:   in.BirthDate,
		IsActive:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and stamps last_login_at.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is deactivated")
	}

	at := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, at); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at

	token, err := s.issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.TokenClaims) error {
	if claims == nil || claims.JTI == "" {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revoke(ctx, claims.JTI, ttl); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *middleware.TokenClaims, error) {
	claims, err := middleware.ParseToken(s.secret, token)
	if err != nil {
		return nil, nil, models.NewUnauthorizedError(err.Error())
	}

	// Fails open when the blacklist cannot be read.
	if revoked, err := s.revoked(ctx, claims.JTI); err == nil && revoked {
		return nil, nil, models.NewUnauthorizedError("Token has been revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, nil, models.NewUnauthorizedError("User no longer exists")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, models.NewUnauthorizedError("Account is deactivated")
	}
	return user, claims, nil
}

func (s *AuthService) issue(userID uint) (string, error) {
	if s.secret == "" {
		return "", models.NewInternalError(errors.New("JWT secret not configured"))
	}
	token, err := middleware.SignToken(s.secret, userID, uuid.NewString(), s.tokenTTL)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}
