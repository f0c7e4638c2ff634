package server

import (
	"context"

	"socialapi/internal/middleware"
	"socialapi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middleware.
const (
	localUserID = "userID"
	localUser   = "user"
	localClaims = "claims"
)

// AuthRequired rejects requests without a valid, unrevoked bearer token for an active user.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := s.authService.Authenticate(c.UserContext(), middleware.BearerToken(c))
		if err != nil {
			return respondError(c, err)
		}
		setCaller(c, user, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise continues anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.BearerToken(c)
		if token == "" {
			return c.Next()
		}
		if user, claims, err := s.authService.Authenticate(c.UserContext(), token); err == nil {
			setCaller(c, user, claims)
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the caller is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := caller(c)
		if user == nil {
			return respondError(c, models.NewUnauthorizedError("Authorization required"))
		}
		if !user.IsAdmin {
			return respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func setCaller(c *fiber.Ctx, user *models.User, claims *middleware.TokenClaims) {
	c.Locals(localUserID, user.ID)
	c.Locals(localUser, user)
	c.Locals(localClaims, claims)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID))
}

// callerID returns the authenticated user id, or 0 for anonymous requests.
func callerID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

func caller(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}
