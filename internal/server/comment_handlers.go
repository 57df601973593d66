package server

import (
	"socialhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

type commentBody struct {
	Content string `json:"content"`
}

func parseCommentBody(c *fiber.Ctx) (string, error) {
	var req commentBody
	if err := c.BodyParser(&req); err != nil {
		return "", models.NewValidationError("Invalid request body")
	}
	return req.Content, nil
}

// AddComment handles POST /comments/add/:postId
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} object{data=models.Comment}
// @Failure 400 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /comments/add/{postId} [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	content, err := parseCommentBody(c)
	if err != nil {
		return respondError(c, err)
	}
	comment, err := s.commentService.AddComment(c.UserContext(), currentUserID(c), postID, content)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, comment, "Comment added successfully")
}

// GetComments handles GET /comments/:postId
// @Summary List a post's comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param postId path int true "Post ID"
// @Success 200 {object} object{data=[]models.Comment}
// @Failure 404 {object} object{message=string}
// @Router /comments/{postId} [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, comments, "Comments fetched successfully")
}

// UpdateComment handles PUT /comments/:commentId
// @Summary Edit own comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} object{data=models.Comment}
// @Failure 403 {object} object{message=string}
// @Router /comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	content, err := parseCommentBody(c)
	if err != nil {
		return respondError(c, err)
	}
	comment, err := s.commentService.UpdateComment(c.UserContext(), currentUserID(c), commentID, content)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, comment, "Comment updated successfully")
}

// DeleteComment handles DELETE /comments/:commentId
// @Summary Delete own comment and its replies
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{message=string}
// @Router /comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), currentUserID(c), commentID); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Comment deleted successfully")
}

// ReplyToComment handles POST /comments/:commentId/reply
// @Summary Reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Parent comment ID"
// @Param request body object{content=string} true "Reply"
// @Success 201 {object} object{data=models.Comment}
// @Failure 404 {object} object{message=string}
// @Router /comments/{commentId}/reply [post]
func (s *Server) ReplyToComment(c *fiber.Ctx) error {
	parentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	content, err := parseCommentBody(c)
	if err != nil {
		return respondError(c, err)
	}
	reply, err := s.commentService.Reply(c.UserContext(), currentUserID(c), parentID, content)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, reply, "Reply added successfully")
}

// GetReplies handles GET /comments/:commentId/replies
// @Summary List replies of a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{data=[]models.Comment}
// @Router /comments/{commentId}/replies [get]
func (s *Server) GetReplies(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	replies, err := s.commentService.ListReplies(c.UserContext(), commentID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, replies, "Replies fetched successfully")
}

// ToggleCommentLike handles PUT /comments/:commentId/like
// @Summary Like or unlike a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{data=models.Comment}
// @Router /comments/{commentId}/like [put]
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, liked, err := s.commentService.ToggleLike(c.UserContext(), currentUserID(c), commentID)
	if err != nil {
		return respondError(c, err)
	}
	message := "Comment unliked"
	if liked {
		message = "Comment liked"
	}
	return respond(c, fiber.StatusOK, comment, message)
}

// LikeComment handles POST /comments/:commentId/like
// @Summary Like a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{data=models.Comment}
// @Failure 400 {object} object{message=string}
// @Router /comments/{commentId}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.Like(c.UserContext(), currentUserID(c), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, comment, "Comment liked")
}

// UnlikeComment handles POST /comments/:commentId/unlike
// @Summary Unlike a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} object{data=models.Comment}
// @Failure 400 {object} object{message=string}
// @Router /comments/{commentId}/unlike [post]
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.Unlike(c.UserContext(), currentUserID(c), commentID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, comment, "Comment unliked")
}
