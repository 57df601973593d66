package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Visibility of a post. Stored but not enforced on reads.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// StringList is persisted as comma-joined text so it works on both
// postgres and sqlite and stays searchable with LIKE.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("StringList: unsupported source %T", src)
	}
	out := StringList{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

// Post represents a post authored by a user.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"userId"`
	User       User       `gorm:"foreignKey:UserID" json:"-"`
	Content    string     `gorm:"type:text" json:"content"`
	Image      string     `json:"image"`
	Visibility Visibility `gorm:"type:varchar(16);not null;default:'public'" json:"visibility"`
	Location   string     `json:"location"`
	Tags       StringList `gorm:"type:text" json:"tags"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likesCount"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"commentsCount"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->" json:"liked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Author   UserSummary `gorm:"-" json:"author"`
	Comments []Comment   `gorm:"-" json:"comments"`
}

// PostLike is one membership in a post's like set.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}
