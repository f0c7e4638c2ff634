package server

import (
	"socialapi/internal/models"
	"socialapi/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// ListUsers handles GET /api/v1/users/
// @Summary List users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} models.Envelope
// @Router /users/ [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePage(c)
	users, total, err := s.userService.ListUsers(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	items := lo.Map(users, func(u models.User, _ int) models.UserResponse { return u.ToResponse() })
	return respondPage(c, "Users retrieved", items, page, total)
}

// GetUser handles GET /api/v1/users/:id/
// @Summary Get a user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.Envelope
// @Router /users/{id}/ [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "User retrieved", user.ToResponse())
}

// GetMe handles GET /api/v1/users/me/
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /users/me/ [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "User retrieved", user.ToResponse())
}

// UpdateMe handles PUT|PATCH /api/v1/users/me/
// @Summary Update current user
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updateMeRequest true "Fields to change"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.Envelope
// @Router /users/me/ [patch]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req updateMeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.UpdateUserInput{
		Username:     req.Username,
		Nickname:     req.Nickname,
		Bio:          req.Bio,
		PhoneNumber:  req.PhoneNumber,
		ProfileImage: req.ProfileImage,
	}
	if req.BirthDate != nil {
		birthDate, err := parseDate("birth_date", *req.BirthDate)
		if err != nil {
			return respondError(c, err)
		}
		in.BirthDate = birthDate
	}

	user, err := s.userService.UpdateSelf(c.UserContext(), callerID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "User updated", user.ToResponse())
}

// DeactivateMe handles DELETE /api/v1/users/me/
// @Summary Deactivate current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /users/me/ [delete]
func (s *Server) DeactivateMe(c *fiber.Ctx) error {
	if err := s.userService.Deactivate(c.UserContext(), callerID(c)); err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Account deactivated", nil)
}

// GetMyProfile handles GET /api/v1/users/profile/
// @Summary Current user's profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope{data=models.Profile}
// @Router /users/profile/ [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfile(c.UserContext(), callerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Profile retrieved", profile)
}

// UpdateMyProfile handles PUT|PATCH /api/v1/users/profile/
// @Summary Update current user's profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Profile}
// @Router /users/profile/ [patch]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.userService.UpdateProfile(c.UserContext(), callerID(c), service.UpdateProfileInput{
		Website:            req.Website,
		Location:           req.Location,
		Company:            req.Company,
		JobTitle:           req.JobTitle,
		IsPublic:           req.IsPublic,
		EmailNotifications: req.EmailNotifications,
		PushNotifications:  req.PushNotifications,
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Profile updated", profile)
}
