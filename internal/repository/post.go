package repository

import (
	"context"

	"socialhub/internal/cache"
	"socialhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error)
	ListByUser(ctx context.Context, userID uint, viewerID uint, limit, offset int) ([]*models.Post, int64, error)
	Search(ctx context.Context, query string, viewerID uint, limit int) ([]*models.Post, error)
	Delete(ctx context.Context, id uint) error
	Like(ctx context.Context, userID, postID uint) (bool, error)
	Unlike(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads a post with its counts. Anonymous reads go through the cache;
// viewer-specific reads carry the liked flag and skip it.
func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	load := func() error {
		err := r.applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
			Preload("User").
			First(&post, id).Error
		if err != nil {
			return notFoundOr(err, "Post", id)
		}
		post.Author = post.User.Summary()
		return nil
	}

	var err error
	if viewerID == 0 {
		err = cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []*models.Post
	err := r.applyPostDetails(db, viewerID).
		Preload("User").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	fillPostAuthors(posts)
	return posts, total, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []*models.Post
	err := r.applyPostDetails(db, viewerID).
		Preload("User").
		Where("posts.user_id = ?", userID).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	fillPostAuthors(posts)
	return posts, total, nil
}

// Search matches content, location and tags case-insensitively.
func (r *postRepository) Search(ctx context.Context, query string, viewerID uint, limit int) ([]*models.Post, error) {
	pattern := containsPattern(query)
	var posts []*models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Where(likeClause("posts.content")+" OR "+likeClause("posts.location")+" OR "+likeClause("posts.tags"),
			pattern, pattern, pattern).
		Order("posts.created_at DESC").
		Limit(clampLimit(limit)).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	fillPostAuthors(posts)
	return posts, nil
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) as comments_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) as likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) as liked", viewerID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func fillPostAuthors(posts []*models.Post) {
	for _, p := range posts {
		p.Author = p.User.Summary()
	}
}

// Delete removes the post together with its likes, comments and comment likes.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// Like adds userID to the post's like set. It reports false when the like
// already existed; concurrent likes never produce duplicates.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PostLike{UserID: userID, PostID: postID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidatePost(ctx, postID)
	return res.RowsAffected > 0, nil
}

// Unlike hard deletes the like and reports whether one existed.
func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.PostLike{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidatePost(ctx, postID)
	return res.RowsAffected > 0, nil
}
