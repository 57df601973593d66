package repository

import (
	"context"
	"errors"
	"time"

	"socialhub/internal/models"

	"gorm.io/gorm"
)

// SessionRepository persists refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Rotate(ctx context.Context, oldID string, next *models.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID uint) (int64, error)
	ListActive(ctx context.Context, userID uint) ([]models.Session, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository returns a new SessionRepository implementation.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFoundOr(err, "Session", id)
	}
	return &session, nil
}

// Rotate revokes oldID and inserts next in one transaction. It fails with
// UNAUTHORIZED when oldID was already revoked, so a refresh token can be
// exchanged at most once even under concurrent requests.
func (r *sessionRepository) Rotate(ctx context.Context, oldID string, next *models.Session) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Session{}).
			Where("id = ? AND revoked_at IS NULL", oldID).
			Update("revoked_at", now)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewUnauthorizedError("Refresh token is expired or used")
		}
		if err := tx.Create(next).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

func (r *sessionRepository) Revoke(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now()).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepository) ListActive(ctx context.Context, userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return sessions, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.Session{})
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
