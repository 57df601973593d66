package models

import "time"

// Comment belongs to a post. A reply points at the comment it answers
// through ParentCommentID.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"not null;index" json:"postId"`
	Post            *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	UserID          uint      `gorm:"not null;index" json:"userId"`
	User            User      `gorm:"foreignKey:UserID" json:"-"`
	ParentCommentID *uint     `gorm:"index" json:"parentCommentId,omitempty"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	LikesCount      int       `gorm:"->" json:"likesCount"`
	RepliesCount    int       `gorm:"->" json:"repliesCount"`
	Liked           bool      `gorm:"->" json:"liked"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Author UserSummary `gorm:"-" json:"author"`
}

// CommentLike is one membership in a comment's like set.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_likes_user_comment" json:"userId"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_likes_user_comment;index" json:"commentId"`
	CreatedAt time.Time `json:"createdAt"`
}
