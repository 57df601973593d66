package server

import (
	"github.com/gofiber/fiber/v2"
)

// SearchUsers handles GET /search/users
// @Summary Search users by username or email
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param query query string true "Substring to match"
// @Param limit query int false "Max results (default 20)"
// @Success 200 {object} object{data=[]service.UserResult}
// @Failure 400 {object} object{message=string}
// @Router /search/users [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	users, err := s.searchService.SearchUsers(c.UserContext(), c.Query("query"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, users, "Users fetched successfully")
}

// SearchPosts handles GET /search/posts
// @Summary Search posts by content, location or tag
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param query query string true "Substring to match"
// @Param limit query int false "Max results (default 20)"
// @Success 200 {object} object{data=[]models.Post}
// @Failure 400 {object} object{message=string}
// @Router /search/posts [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.searchService.SearchPosts(c.UserContext(), c.Query("query"), currentUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, posts, "Posts fetched successfully")
}

// SearchComments handles GET /search/comments
// @Summary Search comments by content
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param query query string true "Substring to match"
// @Param limit query int false "Max results (default 20)"
// @Success 200 {object} object{data=[]models.Comment}
// @Failure 400 {object} object{message=string}
// @Router /search/comments [get]
func (s *Server) SearchComments(c *fiber.Ctx) error {
	comments, err := s.searchService.SearchComments(c.UserContext(), c.Query("query"), currentUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, comments, "Comments fetched successfully")
}
