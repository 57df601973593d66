package service

import (
	"context"
	"fmt"

	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
)

// RelationshipService provides friend-request, friendship and block logic.
type RelationshipService struct {
	repo          repository.RelationshipRepository
	users         repository.UserRepository
	notifications *NotificationService
	publisher     EventPublisher
}

// NewRelationshipService returns a new RelationshipService. notifier and
// publisher may be nil.
func NewRelationshipService(repo repository.RelationshipRepository, users repository.UserRepository, notifier *NotificationService, publisher EventPublisher) *RelationshipService {
	return &RelationshipService{
		repo:          repo,
		users:         users,
		notifications: notifier,
		publisher:     publisher,
	}
}

// RequestLists holds a user's pending requests in both directions.
type RequestLists struct {
	Incoming []models.FriendRequest `json:"incomingRequests"`
	Outgoing []models.FriendRequest `json:"outgoingRequests"`
}

// SendRequest creates a pending friend request from senderID to receiverID.
func (s *RelationshipService) SendRequest(ctx context.Context, senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, models.NewValidationError("Cannot send friend request to yourself")
	}
	sender, err := requireUser(ctx, s.users, senderID)
	if err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.users, receiverID); err != nil {
		return nil, err
	}

	blocked, err := s.repo.IsBlockedEither(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, models.NewForbiddenError("You cannot send a friend request to this user")
	}

	friends, err := s.repo.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, models.NewValidationError("You are already friends")
	}

	existing, err := s.repo.FindPendingRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Friend request already sent")
	}
	reverse, err := s.repo.FindPendingRequest(ctx, receiverID, senderID)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		return nil, models.NewValidationError("This user already sent you a friend request, accept it instead")
	}

	req := &models.FriendRequest{
		RequesterID: senderID,
		ReceiverID:  receiverID,
		Status:      models.FriendRequestPending,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	observability.RelationshipTransitions.WithLabelValues("request_sent").Inc()

	created, err := s.repo.GetRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.notifications.notifyQuietly(ctx, NotifyInput{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       models.NotificationFriendRequest,
		Message:    fmt.Sprintf("%s sent you a friend request", sender.Username),
	})
	s.publish(ctx, receiverID, notifications.EventFriendRequestReceived, created)

	return created, nil
}

// AcceptRequest accepts a pending request addressed to receiverID and
// makes both users friends.
func (s *RelationshipService) AcceptRequest(ctx context.Context, receiverID, requestID uint) (*models.FriendRequest, error) {
	req, err := s.addressedTo(ctx, receiverID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AcceptRequest(ctx, req); err != nil {
		return nil, err
	}
	observability.RelationshipTransitions.WithLabelValues("request_accepted").Inc()

	s.publish(ctx, req.RequesterID, notifications.EventFriendRequestAccepted, req)
	return req, nil
}

// RejectRequest rejects a pending request addressed to receiverID.
func (s *RelationshipService) RejectRequest(ctx context.Context, receiverID, requestID uint) (*models.FriendRequest, error) {
	req, err := s.addressedTo(ctx, receiverID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RejectRequest(ctx, req); err != nil {
		return nil, err
	}
	observability.RelationshipTransitions.WithLabelValues("request_rejected").Inc()
	return req, nil
}

// addressedTo loads a pending request and hides it from anyone but its receiver.
func (s *RelationshipService) addressedTo(ctx context.Context, receiverID, requestID uint) (*models.FriendRequest, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != receiverID {
		return nil, models.NewNotFoundMessage("Friend request not found")
	}
	if req.Status != models.FriendRequestPending {
		return nil, models.NewValidationError("Friend request is not pending")
	}
	return req, nil
}

// ListRequests returns the user's pending incoming and outgoing requests.
func (s *RelationshipService) ListRequests(ctx context.Context, userID uint) (*RequestLists, error) {
	incoming, err := s.repo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.repo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RequestLists{Incoming: incoming, Outgoing: outgoing}, nil
}

// ListFriends returns the user's friends.
func (s *RelationshipService) ListFriends(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.repo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

// Unfriend removes the friendship in both directions and returns the former friend.
func (s *RelationshipService) Unfriend(ctx context.Context, userID, friendID uint) (*models.UserSummary, error) {
	if userID == friendID {
		return nil, models.NewValidationError("Cannot unfriend yourself")
	}
	friend, err := requireUser(ctx, s.users, friendID)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.Unfriend(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, models.NewNotFoundMessage("Friendship not found")
	}
	observability.RelationshipTransitions.WithLabelValues("unfriended").Inc()

	s.publish(ctx, friendID, notifications.EventFriendRemoved, map[string]uint{"userId": userID})

	summary := friend.Summary()
	return &summary, nil
}

// Block severs any relation with targetID and blocks them.
func (s *RelationshipService) Block(ctx context.Context, userID, targetID uint) (*models.UserSummary, error) {
	if userID == targetID {
		return nil, models.NewValidationError("Cannot block yourself")
	}
	target, err := requireUser(ctx, s.users, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Block(ctx, userID, targetID); err != nil {
		return nil, err
	}
	observability.RelationshipTransitions.WithLabelValues("blocked").Inc()

	summary := target.Summary()
	return &summary, nil
}

// Unblock removes the caller's block on targetID. It is not an error when
// no block exists.
func (s *RelationshipService) Unblock(ctx context.Context, userID, targetID uint) error {
	if err := s.repo.Unblock(ctx, userID, targetID); err != nil {
		return err
	}
	observability.RelationshipTransitions.WithLabelValues("unblocked").Inc()
	return nil
}

// ListBlocked returns the users the caller has blocked.
func (s *RelationshipService) ListBlocked(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.repo.ListBlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *RelationshipService) publish(ctx context.Context, userID uint, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, userID, eventType, payload)
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}
