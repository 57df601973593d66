package service

import (
	"context"
	"log/slog"
	"strings"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"
)

// EventPublisher pushes realtime events to a user's open connections.
type EventPublisher interface {
	Publish(ctx context.Context, userID uint, eventType string, payload interface{})
}

// NotificationService persists notifications and pushes them to receivers.
type NotificationService struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	publisher EventPublisher
}

// NewNotificationService returns a NotificationService. publisher may be nil.
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, publisher EventPublisher) *NotificationService {
	return &NotificationService{repo: repo, users: users, publisher: publisher}
}

// NotifyInput describes a notification to deliver.
type NotifyInput struct {
	SenderID   uint
	ReceiverID uint
	Type       models.NotificationType
	Message    string
}

// Notify stores a notification and pushes it to the receiver. Push failures
// never undo the stored row.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if in.ReceiverID == 0 || strings.TrimSpace(string(in.Type)) == "" {
		return nil, models.NewValidationError("Receiver and type are required")
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid notification type")
	}
	if _, err := requireUser(ctx, s.users, in.ReceiverID); err != nil {
		return nil, err
	}

	n := &models.Notification{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Type:       in.Type,
		Message:    strings.TrimSpace(in.Message),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		// The row exists; fall back to what was written.
		created = n
	}
	s.push(ctx, in.ReceiverID, notifications.EventNotification, created)
	return created, nil
}

// notifyQuietly is used for side-effect notifications where the primary
// operation has already succeeded.
func (s *NotificationService) notifyQuietly(ctx context.Context, in NotifyInput) {
	if s == nil || in.SenderID == in.ReceiverID {
		return
	}
	if _, err := s.Notify(ctx, in); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to create notification",
			slog.String("type", string(in.Type)),
			slog.Uint64("receiver_id", uint64(in.ReceiverID)),
			slog.String("error", err.Error()))
	}
}

func (s *NotificationService) push(ctx context.Context, userID uint, eventType string, payload interface{}) {
	if s == nil || s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, userID, eventType, payload)
}

// List returns the receiver's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, receiverID uint, unreadOnly bool, page, limit int) ([]models.Notification, error) {
	page, limit = normalizePage(page, limit, defaultNotificationLimit)
	return s.repo.ListByReceiver(ctx, receiverID, unreadOnly, limit, (page-1)*limit)
}

// UnreadCount returns how many notifications the receiver has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	return s.repo.CountUnread(ctx, receiverID)
}

// MarkRead marks one notification read. Only its receiver may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	n, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if !n.IsRead {
		if err := s.repo.MarkRead(ctx, n.ID); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the receiver read.
func (s *NotificationService) MarkAllRead(ctx context.Context, receiverID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, receiverID)
}

// Delete removes one notification. Only its receiver may do so.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uint) error {
	n, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, n.ID)
}

func (s *NotificationService) owned(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.ReceiverID != userID {
		return nil, models.NewForbiddenError("You can only manage your own notifications")
	}
	return n, nil
}
