package repository

import (
	"context"
	"errors"
	"time"

	"socialhub/internal/cache"
	"socialhub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
//
// GetByID is served through the read-through cache. Cached users do not carry
// credential or token fields, so credential checks go through GetByEmail or
// the token lookups, which always hit the database.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) error
	MarkVerified(ctx context.Context, id uint) error
	SetResetToken(ctx context.Context, id uint, token string, expires time.Time) error
	SetPassword(ctx context.Context, id uint, hash string) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// GetByVerificationToken returns nil, nil when the token is unknown.
func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, "verification_token = ?", token)
}

// GetByResetToken returns nil, nil when the token is unknown.
func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, "reset_password_token = ?", token)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.updateColumns(ctx, id, updates)
}

func (r *userRepository) MarkVerified(ctx context.Context, id uint) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"is_verified":        true,
		"verification_token": "",
	})
}

func (r *userRepository) SetResetToken(ctx context.Context, id uint, token string, expires time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	})
}

// SetPassword stores a new hash and clears any outstanding reset token.
func (r *userRepository) SetPassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"password":               hash,
		"reset_password_token":   "",
		"reset_password_expires": nil,
	})
}

func (r *userRepository) updateColumns(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := containsPattern(query)
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where(likeClause("username")+" OR "+likeClause("email"), pattern, pattern).
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
