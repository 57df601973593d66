package models

import "time"

// NotificationType enumerates the kinds of notifications.
type NotificationType string

const (
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
	NotificationFriendRequest NotificationType = "friendRequest"
	NotificationMessage       NotificationType = "message"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFriendRequest, NotificationMessage:
		return true
	}
	return false
}

// Notification is addressed to Receiver and owned by them.
type Notification struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	SenderID   uint             `gorm:"not null;index" json:"senderId"`
	Sender     User             `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID uint             `gorm:"not null;index:idx_notifications_receiver_created" json:"receiverId"`
	Type       NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Message    string           `gorm:"type:text" json:"message"`
	IsRead     bool             `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt  time.Time        `gorm:"index:idx_notifications_receiver_created" json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`

	SenderSummary UserSummary `gorm:"-" json:"sender"`
}
