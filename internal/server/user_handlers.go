package server

import (
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /users/me
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=models.User}
// @Failure 401 {object} object{message=string}
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, user, "Profile fetched")
}

// UpdateMyProfile handles PUT /users/me
// @Summary Update current user profile
// @Description Accepts JSON or a multipart form with an optional avatar file.
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,bio=string,location=string} false "Profile fields"
// @Success 200 {object} object{data=models.User}
// @Failure 400 {object} object{message=string}
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	in := service.UpdateProfileInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		if v := c.FormValue("username"); v != "" {
			in.Username = &v
		}
		if v := c.FormValue("bio"); v != "" {
			in.Bio = &v
		}
		if v := c.FormValue("location"); v != "" {
			in.Location = &v
		}
		avatar, err := formUpload(c, "avatar")
		if err != nil {
			return respondError(c, err)
		}
		in.Avatar = avatar
	} else {
		var req struct {
			Username *string `json:"username"`
			Bio      *string `json:"bio"`
			Location *string `json:"location"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, models.NewValidationError("Invalid request body"))
		}
		in.Username, in.Bio, in.Location = req.Username, req.Bio, req.Location
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, user, "Profile updated")
}

// GetUserProfile handles GET /users/:id
// @Summary Get user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{data=models.User}
// @Failure 404 {object} object{message=string}
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, user, "User fetched")
}
