package service

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
	media    *MediaService
}

// UpdateProfileInput carries the fields a user may change on their own
// profile. Nil fields are left untouched.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Bio      *string
	Location *string
	Avatar   *Upload
}

func NewUserService(userRepo repository.UserRepository, media *MediaService) *UserService {
	return &UserService{userRepo: userRepo, media: media}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return requireUser(ctx, s.userRepo, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Username != nil {
		if err := validation.ValidateUsername(*in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		updates["username"] = *in.Username
	}

	bio, location := user.Bio, user.Location
	if in.Bio != nil {
		bio = *in.Bio
		updates["bio"] = bio
	}
	if in.Location != nil {
		location = *in.Location
		updates["location"] = location
	}
	if err := validation.ValidateProfile(bio, location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var stored *StoredImage
	if in.Avatar != nil {
		stored, err = s.media.StoreAvatar(ctx, user.Username, in.Avatar)
		if err != nil {
			return nil, err
		}
		updates["avatar"] = stored.URL
	}

	if len(updates) == 0 {
		return user, nil
	}
	if err := s.userRepo.UpdateProfile(ctx, in.UserID, updates); err != nil {
		s.media.Discard(ctx, stored)
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}
