package service

import (
	"context"
	"fmt"
	"strings"

	"socialhub/internal/featureflags"
	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"
)

// PostService owns post creation, feeds and post likes.
type PostService struct {
	postRepo      repository.PostRepository
	commentRepo   repository.CommentRepository
	userRepo      repository.UserRepository
	media         *MediaService
	notifications *NotificationService
	flags         *featureflags.Manager
}

// PostDeps groups PostService collaborators.
type PostDeps struct {
	Posts         repository.PostRepository
	Comments      repository.CommentRepository
	Users         repository.UserRepository
	Media         *MediaService
	Notifications *NotificationService
	Flags         *featureflags.Manager
}

func NewPostService(d PostDeps) *PostService {
	return &PostService{
		postRepo:      d.Posts,
		commentRepo:   d.Comments,
		userRepo:      d.Users,
		media:         d.Media,
		notifications: d.Notifications,
		flags:         d.Flags,
	}
}

type CreatePostInput struct {
	UserID     uint
	Content    string
	ImageURL   string
	Image      *Upload
	Location   string
	Tags       []string
	Visibility string
}

// PostPage is one page of a feed.
type PostPage struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Posts []*models.Post `json:"posts"`
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	imageURL := strings.TrimSpace(in.ImageURL)
	hasUpload := in.Image != nil && len(in.Image.Content) > 0

	if content == "" && imageURL == "" && !hasUpload {
		return nil, models.NewValidationError("Post must have content or image")
	}
	if err := validation.ValidateContent("content", content, validation.PostMaxLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	visibility := models.Visibility(strings.ToLower(strings.TrimSpace(in.Visibility)))
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, models.NewValidationError("Invalid visibility")
	}

	location := strings.TrimSpace(in.Location)
	if err := validation.ValidateProfile("", location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var stored *StoredImage
	if hasUpload {
		stored, err = s.media.StorePostImage(ctx, in.UserID, in.Image)
		if err != nil {
			return nil, err
		}
		imageURL = stored.URL
	}

	post := &models.Post{
		UserID:     in.UserID,
		Content:    content,
		Image:      imageURL,
		Visibility: visibility,
		Location:   location,
		Tags:       models.StringList(tags),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.media.Discard(ctx, stored)
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	created.Comments = []models.Comment{}
	return created, nil
}

// ListPosts returns the global feed, newest first, with top-level comments.
func (s *PostService) ListPosts(ctx context.Context, viewerID uint, page, limit int) (*PostPage, error) {
	page, limit = normalizePage(page, limit, defaultPostLimit)
	posts, total, err := s.postRepo.List(ctx, viewerID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return &PostPage{Total: total, Page: page, Limit: limit, Posts: posts}, nil
}

// ListUserPosts returns one author's posts. An empty result is reported as
// not found.
func (s *PostService) ListUserPosts(ctx context.Context, userID, viewerID uint, page, limit int) (*PostPage, error) {
	page, limit = normalizePage(page, limit, defaultPostLimit)
	posts, total, err := s.postRepo.ListByUser(ctx, userID, viewerID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, models.NewNotFoundMessage("No posts found for this user")
	}
	if err := s.attachComments(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return &PostPage{Total: total, Page: page, Limit: limit, Posts: posts}, nil
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, []*models.Post{post}, viewerID); err != nil {
		return nil, err
	}
	return post, nil
}

// attachComments fills each post's top-level comments in one query.
func (s *PostService) attachComments(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	byPost, err := s.commentRepo.ListByPosts(ctx, ids, viewerID)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if c, ok := byPost[p.ID]; ok {
			p.Comments = c
		} else {
			p.Comments = []models.Comment{}
		}
	}
	return nil
}

// DeletePost removes a post owned by userID along with its comments and likes.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// ToggleLike flips userID's like on the post and reports the new state.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, bool, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, false, err
	}

	liked := !post.Liked
	if liked {
		inserted, err := s.postRepo.Like(ctx, userID, postID)
		if err != nil {
			return nil, false, err
		}
		if inserted {
			s.notifyEngagement(ctx, userID, post.UserID, models.NotificationLike, "%s liked your post")
		}
	} else if _, err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
		return nil, false, err
	}

	updated, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, false, err
	}
	return updated, liked, nil
}

// notifyEngagement tells an author about a like or comment from actorID.
// format receives the actor's username.
func (s *PostService) notifyEngagement(ctx context.Context, actorID, authorID uint, kind models.NotificationType, format string) {
	engagementNotify(ctx, s.notifications, s.userRepo, s.flags, actorID, authorID, kind, format)
}

func engagementNotify(ctx context.Context, notifier *NotificationService, users repository.UserRepository, flags *featureflags.Manager,
	actorID, authorID uint, kind models.NotificationType, format string) {
	if notifier == nil || actorID == authorID || !flags.Enabled(featureflags.EngagementNotifications, authorID) {
		return
	}
	name := "Someone"
	if actor, err := users.GetByID(ctx, actorID); err == nil {
		name = actor.Username
	}
	notifier.notifyQuietly(ctx, NotifyInput{
		SenderID:   actorID,
		ReceiverID: authorID,
		Type:       kind,
		Message:    fmt.Sprintf(format, name),
	})
}
