package database

import "socialhub/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.CommentLike{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.UserBlock{},
		&models.Notification{},
	}
}
