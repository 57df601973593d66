// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is a registered account. Credential and token fields never leave the
// server.
type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Username             string     `gorm:"size:20;not null;index" json:"username"`
	Email                string     `gorm:"uniqueIndex;not null" json:"email"`
	Password             string     `gorm:"not null" json:"-"`
	Bio                  string     `gorm:"type:text" json:"bio"`
	Location             string     `json:"location"`
	Avatar               string     `json:"avatar"`
	IsVerified           bool       `gorm:"not null;default:false" json:"isVerified"`
	VerificationToken    string     `gorm:"index" json:"-"`
	ResetPasswordToken   string     `gorm:"index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// UserSummary is the public projection embedded in posts, comments,
// requests and notifications.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary returns the public projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
