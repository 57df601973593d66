package service

import (
	"context"
	"strings"

	"socialhub/internal/featureflags"
	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"
)

type CommentService struct {
	commentRepo   repository.CommentRepository
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	flags         *featureflags.Manager
}

// CommentDeps groups CommentService collaborators.
type CommentDeps struct {
	Comments      repository.CommentRepository
	Posts         repository.PostRepository
	Users         repository.UserRepository
	Notifications *NotificationService
	Flags         *featureflags.Manager
}

func NewCommentService(d CommentDeps) *CommentService {
	return &CommentService{
		commentRepo:   d.Comments,
		postRepo:      d.Posts,
		userRepo:      d.Users,
		notifications: d.Notifications,
		flags:         d.Flags,
	}
}

func cleanCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Comment content is required")
	}
	if err := validation.ValidateContent("comment", content, validation.CommentMaxLength); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return content, nil
}

// AddComment adds a top-level comment to a post.
func (s *CommentService) AddComment(ctx context.Context, userID, postID uint, content string) (*models.Comment, error) {
	content, err := cleanCommentContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: post.ID, UserID: userID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	engagementNotify(ctx, s.notifications, s.userRepo, s.flags, userID, post.UserID,
		models.NotificationComment, "%s commented on your post")

	return s.commentRepo.GetByID(ctx, comment.ID, userID)
}

// Reply stores a reply under parentID on the parent's post.
func (s *CommentService) Reply(ctx context.Context, userID, parentID uint, content string) (*models.Comment, error) {
	parent, err := s.commentRepo.GetByID(ctx, parentID, userID)
	if err != nil {
		return nil, err
	}
	content, err = cleanCommentContent(content)
	if err != nil {
		return nil, err
	}

	reply := &models.Comment{
		PostID:          parent.PostID,
		UserID:          userID,
		ParentCommentID: &parent.ID,
		Content:         content,
	}
	if err := s.commentRepo.Create(ctx, reply); err != nil {
		return nil, err
	}

	engagementNotify(ctx, s.notifications, s.userRepo, s.flags, userID, parent.UserID,
		models.NotificationComment, "%s replied to your comment")

	return s.commentRepo.GetByID(ctx, reply.ID, userID)
}

// ListComments returns every comment on a post, replies included, newest first.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, viewerID)
}

// ListReplies returns the replies to a comment, newest first.
func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID, viewerID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListReplies(ctx, commentID, viewerID)
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	content, err = cleanCommentContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, commentID, content); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, commentID, userID)
}

// DeleteComment removes a comment with its replies and their likes.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.DeleteWithReplies(ctx, commentID)
}

// ToggleLike flips userID's like on a comment and reports the new state.
func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID uint) (*models.Comment, bool, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return nil, false, err
	}
	liked := !comment.Liked
	if liked {
		_, err = s.commentRepo.Like(ctx, userID, commentID)
	} else {
		_, err = s.commentRepo.Unlike(ctx, userID, commentID)
	}
	if err != nil {
		return nil, false, err
	}
	updated, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return nil, false, err
	}
	return updated, liked, nil
}

func (s *CommentService) Like(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID, userID); err != nil {
		return nil, err
	}
	inserted, err := s.commentRepo.Like(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, models.NewValidationError("You already liked this comment")
	}
	return s.commentRepo.GetByID(ctx, commentID, userID)
}

func (s *CommentService) Unlike(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID, userID); err != nil {
		return nil, err
	}
	removed, err := s.commentRepo.Unlike(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.NewValidationError("You have not liked this comment")
	}
	return s.commentRepo.GetByID(ctx, commentID, userID)
}
