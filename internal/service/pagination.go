package service

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/repository"
)

const (
	defaultPostLimit         = 10
	defaultNotificationLimit = 20
	defaultSearchLimit       = 20
	maxPageLimit             = 100
)

// normalizePage applies defaults to 1-based page numbers and caps limit.
func normalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// requireUser loads a user, reporting a missing one as "User not found".
func requireUser(ctx context.Context, users repository.UserRepository, id uint) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundMessage("User not found")
		}
		return nil, err
	}
	return user, nil
}
