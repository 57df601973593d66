package repository

import (
	"context"

	"socialhub/internal/cache"
	"socialhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error)
	ListByPosts(ctx context.Context, postIDs []uint, viewerID uint) (map[uint][]models.Comment, error)
	ListReplies(ctx context.Context, parentID uint, viewerID uint) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	DeleteWithReplies(ctx context.Context, id uint) error
	Like(ctx context.Context, userID, commentID uint) (bool, error)
	Unlike(ctx context.Context, userID, commentID uint) (bool, error)
	Search(ctx context.Context, query string, viewerID uint, limit int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.applyCommentDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		First(&comment, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	comment.Author = comment.User.Summary()
	return &comment, nil
}

// ListByPost returns every comment on a post, replies included, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.applyCommentDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	fillCommentAuthors(comments)
	return comments, nil
}

// ListByPosts loads the top-level comments for a page of posts in one query,
// keyed by post id.
func (r *commentRepository) ListByPosts(ctx context.Context, postIDs []uint, viewerID uint) (map[uint][]models.Comment, error) {
	out := make(map[uint][]models.Comment, len(postIDs))
	postIDs = uniqueIDs(postIDs)
	if len(postIDs) == 0 {
		return out, nil
	}
	var comments []*models.Comment
	err := r.applyCommentDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Where("comments.post_id IN ? AND comments.parent_comment_id IS NULL", postIDs).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	fillCommentAuthors(comments)
	for _, c := range comments {
		out[c.PostID] = append(out[c.PostID], *c)
	}
	return out, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint, viewerID uint) ([]*models.Comment, error) {
	var replies []*models.Comment
	err := r.applyCommentDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Where("comments.parent_comment_id = ?", parentID).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&replies).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	fillCommentAuthors(replies)
	return replies, nil
}

func (r *commentRepository) Search(ctx context.Context, query string, viewerID uint, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.applyCommentDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Preload("Post").
		Where(likeClause("comments.content"), containsPattern(query)).
		Order("comments.created_at DESC").
		Limit(clampLimit(limit)).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	fillCommentAuthors(comments)
	return comments, nil
}

func (r *commentRepository) applyCommentDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "comments.*, " +
		"(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) as likes_count, " +
		"(SELECT COUNT(*) FROM comments AS replies WHERE replies.parent_comment_id = comments.id) as replies_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM comment_likes WHERE comment_likes.comment_id = comments.id AND comment_likes.user_id = ?) as liked", viewerID)
	}
	return db.Select(selectQuery + ", false as liked")
}

func fillCommentAuthors(comments []*models.Comment) {
	for _, c := range comments {
		c.Author = c.User.Summary()
	}
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

// DeleteWithReplies removes a comment, its replies and every like on them.
// A reply that has replies of its own takes them along, matching the
// parent_comment_id ON DELETE CASCADE in the SQL schema.
func (r *commentRepository) DeleteWithReplies(ctx context.Context, id uint) error {
	var postID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id", "post_id").First(&comment, id).Error; err != nil {
			return notFoundOr(err, "Comment", id)
		}
		postID = comment.PostID

		ids := []uint{id}
		for level := []uint{id}; len(level) > 0; {
			var next []uint
			if err := tx.Model(&models.Comment{}).Where("parent_comment_id IN ?", level).Pluck("id", &next).Error; err != nil {
				return err
			}
			ids = append(ids, next...)
			level = next
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		// Children first so the self reference never dangles.
		for i := len(ids) - 1; i >= 0; i-- {
			if err := tx.Delete(&models.Comment{}, ids[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

// Like reports false when userID already liked the comment.
func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommentLike{UserID: userID, CommentID: commentID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Unlike reports false when there was no like to remove.
func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
