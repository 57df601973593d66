package models

import (
	"time"
)

// FriendRequestStatus represents the status of a friend request.
type FriendRequestStatus string

const (
	// FriendRequestPending indicates a request awaiting the receiver.
	FriendRequestPending FriendRequestStatus = "pending"
	// FriendRequestAccepted indicates an accepted request.
	FriendRequestAccepted FriendRequestStatus = "accepted"
	// FriendRequestRejected indicates a rejected request.
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed request from Requester to Receiver. At most
// one pending request exists per direction.
type FriendRequest struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	RequesterID uint                `gorm:"not null;index:idx_friend_requests_pair;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending'" json:"senderId"`
	ReceiverID  uint                `gorm:"not null;index:idx_friend_requests_pair;index;uniqueIndex:idx_friend_requests_pending_pair,where:status = 'pending'" json:"receiverId"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
	Receiver  User `gorm:"foreignKey:ReceiverID" json:"-"`

	Sender    *UserSummary `gorm:"-" json:"sender,omitempty"`
	Recipient *UserSummary `gorm:"-" json:"receiver,omitempty"`
}

// TableName specifies the table name for GORM
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Friendship is one direction of a symmetric friendship. Both (A,B) and
// (B,A) exist or neither does.
type Friendship struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	FriendID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"friendId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// UserBlock records that Blocker has blocked Blocked.
type UserBlock struct {
	BlockerID uint      `gorm:"primaryKey;autoIncrement:false" json:"blockerId"`
	BlockedID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (UserBlock) TableName() string {
	return "user_blocks"
}
