package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /feature-flags
// @Summary Feature flags
// @Description Configured flag values and their evaluation for the caller.
// @Tags flags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=object{raw=object,evaluated=object}}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if s.featureFlags == nil {
		return respond(c, fiber.StatusOK, fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		}, "Feature flags fetched")
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	}, "Feature flags fetched")
}
