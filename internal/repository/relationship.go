package repository

import (
	"context"
	"errors"

	"socialhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository persists friend requests, friendships and blocks.
// Every mutating method runs in a single transaction.
type RelationshipRepository interface {
	GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error)
	FindPendingRequest(ctx context.Context, requesterID, receiverID uint) (*models.FriendRequest, error)
	AreFriends(ctx context.Context, userID, otherID uint) (bool, error)
	IsBlockedEither(ctx context.Context, userID, otherID uint) (bool, error)
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	AcceptRequest(ctx context.Context, req *models.FriendRequest) error
	RejectRequest(ctx context.Context, req *models.FriendRequest) error
	ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)
	Unfriend(ctx context.Context, userID, friendID uint) (bool, error)
	Block(ctx context.Context, blockerID, blockedID uint) error
	Unblock(ctx context.Context, blockerID, blockedID uint) error
	ListBlocked(ctx context.Context, blockerID uint) ([]models.User, error)
}

type relationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &relationshipRepository{db: db}
}

// errRequestNotPending aborts a transition whose request was resolved
// concurrently.
var errRequestNotPending = errors.New("friend request is no longer pending")

func (r *relationshipRepository) GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("Receiver").
		First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("Friend request not found")
		}
		return nil, models.NewInternalError(err)
	}
	fillRequestSummaries(&req)
	return &req, nil
}

// FindPendingRequest returns nil, nil when no pending request exists for the
// ordered pair.
func (r *relationshipRepository) FindPendingRequest(ctx context.Context, requesterID, receiverID uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND receiver_id = ? AND status = ?", requesterID, receiverID, models.FriendRequestPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *relationshipRepository) AreFriends(ctx context.Context, userID, otherID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *relationshipRepository) IsBlockedEither(ctx context.Context, userID, otherID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", userID, otherID, otherID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *relationshipRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	if req.Status == "" {
		req.Status = models.FriendRequestPending
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Friend request already sent")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// AcceptRequest flips a pending request to accepted and writes both
// directions of the friendship.
func (r *relationshipRepository) AcceptRequest(ctx context.Context, req *models.FriendRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolvePending(tx, req.ID, models.FriendRequestAccepted); err != nil {
			return err
		}
		rows := []models.Friendship{
			{UserID: req.RequesterID, FriendID: req.ReceiverID},
			{UserID: req.ReceiverID, FriendID: req.RequesterID},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
	if err != nil {
		return mapTransitionError(err)
	}
	req.Status = models.FriendRequestAccepted
	return nil
}

func (r *relationshipRepository) RejectRequest(ctx context.Context, req *models.FriendRequest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return resolvePending(tx, req.ID, models.FriendRequestRejected)
	})
	if err != nil {
		return mapTransitionError(err)
	}
	req.Status = models.FriendRequestRejected
	return nil
}

func resolvePending(tx *gorm.DB, id uint, status models.FriendRequestStatus) error {
	res := tx.Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", id, models.FriendRequestPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errRequestNotPending
	}
	return nil
}

func mapTransitionError(err error) error {
	if errors.Is(err, errRequestNotPending) {
		return models.NewValidationError("Friend request is not pending")
	}
	return wrapError(err)
}

func (r *relationshipRepository) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("receiver_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range reqs {
		fillRequestSummaries(&reqs[i])
	}
	return reqs, nil
}

func (r *relationshipRepository) ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Receiver").
		Where("requester_id = ? AND status = ?", userID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range reqs {
		fillRequestSummaries(&reqs[i])
	}
	return reqs, nil
}

func fillRequestSummaries(req *models.FriendRequest) {
	if req.Requester.ID != 0 {
		s := req.Requester.Summary()
		req.Sender = &s
	}
	if req.Receiver.ID != 0 {
		s := req.Receiver.Summary()
		req.Recipient = &s
	}
}

func (r *relationshipRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Unfriend removes both friendship rows and the accepted request between the
// pair. It reports whether the users were friends.
func (r *relationshipRepository) Unfriend(ctx context.Context, userID, friendID uint) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(pairClause("user_id", "friend_id"), userID, friendID, friendID, userID).
			Delete(&models.Friendship{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return tx.Where("status = ?", models.FriendRequestAccepted).
			Where(pairClause("requester_id", "receiver_id"), userID, friendID, friendID, userID).
			Delete(&models.FriendRequest{}).Error
	})
	if err != nil {
		return false, wrapError(err)
	}
	return removed, nil
}

// Block severs every relation between the pair and records the block.
func (r *relationshipRepository) Block(ctx context.Context, blockerID, blockedID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(pairClause("user_id", "friend_id"), blockerID, blockedID, blockedID, blockerID).
			Delete(&models.Friendship{}).Error; err != nil {
			return err
		}
		if err := tx.Where(pairClause("requester_id", "receiver_id"), blockerID, blockedID, blockedID, blockerID).
			Delete(&models.FriendRequest{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.UserBlock{BlockerID: blockerID, BlockedID: blockedID}).Error
	})
	return wrapError(err)
}

func (r *relationshipRepository) Unblock(ctx context.Context, blockerID, blockedID uint) error {
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{}).Error
	return wrapError(err)
}

func (r *relationshipRepository) ListBlocked(ctx context.Context, blockerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN user_blocks ON user_blocks.blocked_id = users.id").
		Where("user_blocks.blocker_id = ?", blockerID).
		Order("user_blocks.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// pairClause matches (a,b) in either direction; bind args as a, b, b, a.
func pairClause(left, right string) string {
	return "((" + left + " = ? AND " + right + " = ?) OR (" + left + " = ? AND " + right + " = ?))"
}
