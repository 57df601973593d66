package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestPostRepository_LikeUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "post_likes" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	inserted, err := repo.Like(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepository_UnfriendRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRelationshipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "friendships"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "friend_requests"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	removed, err := repo.Unfriend(context.Background(), 1, 2)
	require.Error(t, err)
	assert.False(t, removed)
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepository_AcceptRequiresPending(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRelationshipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "friend_requests" SET "status"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	req := &models.FriendRequest{ID: 7, RequesterID: 1, ReceiverID: 2, Status: models.FriendRequestPending}
	err := repo.AcceptRequest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Equal(t, models.FriendRequestPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_RotateRevokedSession(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "sessions" SET "revoked_at"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), "old", &models.Session{ID: "new", UserID: 1, ExpiresAt: time.Now()})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	assert.NoError(t, mock.ExpectationsWereMet())
}
