package server

import (
	"socialapi/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/v1/admin/feature-flags/
// @Summary Feature flag configuration
// @Description Raw rollout values plus their evaluation for the calling admin.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /admin/feature-flags/ [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return models.RespondOK(c, fiber.StatusOK, "Feature flags retrieved", fiber.Map{
		"flags":   s.featureFlags.Raw(),
		"enabled": s.featureFlags.Snapshot(callerID(c)),
	})
}
