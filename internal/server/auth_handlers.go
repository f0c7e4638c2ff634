package server

import (
	"socialapi/internal/middleware"
	"socialapi/internal/models"
	"socialapi/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/v1/users/
// @Summary Register
// @Description Create an account and receive an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration"
// @Success 201 {object} models.Envelope{data=service.AuthResult}
// @Failure 400 {object} models.Envelope
// @Router /users/ [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	birthDate, err := parseDate("birth_date", req.BirthDate)
	if err != nil {
		return respondError(c, err)
	}

	res, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Nickname:    req.Nickname,
		PhoneNumber: req.PhoneNumber,
		BirthDate:   birthDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "User registered", authPayload(res))
}

// Login handles POST /api/v1/auth/login/
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} models.Envelope{data=service.AuthResult}
// @Failure 401 {object} models.Envelope
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	res, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Login successful", authPayload(res))
}

// Logout handles POST /api/v1/auth/logout/
// @Summary Logout
// @Description Revoke the presented access token
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /auth/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals(localClaims).(*middleware.TokenClaims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Logged out", nil)
}

func authPayload(res *service.AuthResult) fiber.Map {
	return fiber.Map{
		"user":  res.User.ToResponse(),
		"token": res.Token,
	}
}
