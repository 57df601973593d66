package server

import (
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /posts
// @Summary List posts
// @Description Newest first. Each post carries its author, like and comment counts and top-level comments.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} object{data=service.PostPage}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	res, err := s.postService.ListPosts(c.UserContext(), currentUserID(c), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Posts fetched successfully")
}

// CreatePost handles POST /posts and POST /posts/create
// @Summary Create a post
// @Description JSON with an optional image URL, or multipart with an optional image file.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{content=string,image=string,location=string,tags=[]string,visibility=string} true "Post"
// @Success 201 {object} object{data=models.Post}
// @Failure 400 {object} object{message=string}
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return respondError(c, models.NewValidationError("Invalid multipart form"))
		}
		in.Content = c.FormValue("content")
		in.ImageURL = c.FormValue("image")
		in.Location = c.FormValue("location")
		in.Visibility = c.FormValue("visibility")
		in.Tags = form.Value["tags"]
		if in.Image, err = formUpload(c, "image"); err != nil {
			return respondError(c, err)
		}
	} else {
		var req struct {
			Content    string   `json:"content"`
			Image      string   `json:"image"`
			Location   string   `json:"location"`
			Tags       []string `json:"tags"`
			Visibility string   `json:"visibility"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, models.NewValidationError("Invalid request body"))
		}
		in.Content, in.ImageURL, in.Location = req.Content, req.Image, req.Location
		in.Tags, in.Visibility = req.Tags, req.Visibility
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, post, "Post created successfully")
}

// GetUserPosts handles GET /posts/user/:userId
// @Summary List a user's posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Author ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{data=service.PostPage}
// @Failure 404 {object} object{message=string}
// @Router /posts/user/{userId} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	page, limit := pageQuery(c)
	res, err := s.postService.ListUserPosts(c.UserContext(), userID, currentUserID(c), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "User posts fetched successfully")
}

// GetPost handles GET /posts/:postId
// @Summary Get a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{data=models.Post}
// @Failure 404 {object} object{message=string}
// @Router /posts/{postId} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, post, "Post fetched successfully")
}

// DeletePost handles DELETE /posts/:postId
// @Summary Delete own post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /posts/{postId} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Post deleted successfully")
}

// TogglePostLike handles POST /posts/:postId/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{data=models.Post}
// @Failure 404 {object} object{message=string}
// @Router /posts/{postId}/like [post]
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	post, liked, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	return respond(c, fiber.StatusOK, post, message)
}
