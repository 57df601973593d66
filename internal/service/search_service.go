package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/repository"
)

// SearchService runs substring searches over users, posts and comments.
type SearchService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func NewSearchService(users repository.UserRepository, posts repository.PostRepository, comments repository.CommentRepository) *SearchService {
	return &SearchService{users: users, posts: posts, comments: comments}
}

// UserResult is the projection returned by user search.
type UserResult struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

func searchQuery(q string, limit int) (string, int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", 0, models.NewValidationError("Search query is required")
	}
	_, limit = normalizePage(1, limit, defaultSearchLimit)
	return q, limit, nil
}

func (s *SearchService) SearchUsers(ctx context.Context, query string, limit int) ([]UserResult, error) {
	query, limit, err := searchQuery(query, limit)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]UserResult, 0, len(users))
	for _, u := range users {
		out = append(out, UserResult{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar})
	}
	return out, nil
}

func (s *SearchService) SearchPosts(ctx context.Context, query string, viewerID uint, limit int) ([]*models.Post, error) {
	query, limit, err := searchQuery(query, limit)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, query, viewerID, limit)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *SearchService) SearchComments(ctx context.Context, query string, viewerID uint, limit int) ([]*models.Comment, error) {
	query, limit, err := searchQuery(query, limit)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.Search(ctx, query, viewerID, limit)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}
