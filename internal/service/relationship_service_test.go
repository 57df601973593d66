package service

import (
	"context"
	"testing"

	"socialhub/internal/models"
	"socialhub/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestRelationshipService_SendRequestGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		t.Parallel()
		svc := NewRelationshipService(noopRelationshipRepo(), noopUserRepo(), nil, nil)
		_, err := svc.SendRequest(ctx, 1, 1)
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("missing receiver", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			if id == 2 {
				return nil, models.NewNotFoundError("User", id)
			}
			return &models.User{ID: id}, nil
		}
		svc := NewRelationshipService(noopRelationshipRepo(), users, nil, nil)
		_, err := svc.SendRequest(ctx, 1, 2)
		assertAppCode(t, err, models.CodeNotFound)
		assert.Equal(t, "User not found", err.Error())
	})

	t.Run("blocked", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.isBlockedEitherFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
		svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)
		_, err := svc.SendRequest(ctx, 1, 2)
		assertAppCode(t, err, models.CodeForbidden)
	})

	t.Run("already friends", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.areFriendsFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
		svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)
		_, err := svc.SendRequest(ctx, 1, 2)
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.findPendingRequestFn = func(_ context.Context, from, to uint) (*models.FriendRequest, error) {
			if from == 1 && to == 2 {
				return &models.FriendRequest{ID: 9}, nil
			}
			return nil, nil
		}
		svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)
		_, err := svc.SendRequest(ctx, 1, 2)
		assertAppCode(t, err, models.CodeValidation)
		assert.Equal(t, "Friend request already sent", err.Error())
	})

	t.Run("reverse pending", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.findPendingRequestFn = func(_ context.Context, from, to uint) (*models.FriendRequest, error) {
			if from == 2 && to == 1 {
				return &models.FriendRequest{ID: 9}, nil
			}
			return nil, nil
		}
		created := false
		repo.createRequestFn = func(context.Context, *models.FriendRequest) error {
			created = true
			return nil
		}
		svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)
		_, err := svc.SendRequest(ctx, 1, 2)
		assertAppCode(t, err, models.CodeValidation)
		assert.False(t, created)
	})
}

func TestRelationshipService_SendRequestPublishes(t *testing.T) {
	t.Parallel()
	repo := noopRelationshipRepo()
	var stored *models.FriendRequest
	repo.createRequestFn = func(_ context.Context, req *models.FriendRequest) error {
		req.ID = 42
		stored = req
		return nil
	}
	repo.getRequestFn = func(_ context.Context, id uint) (*models.FriendRequest, error) {
		copied := *stored
		return &copied, nil
	}
	pub := &recordingPublisher{}
	svc := NewRelationshipService(repo, noopUserRepo(), nil, pub)

	req, err := svc.SendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(42), req.ID)
	assert.Equal(t, models.FriendRequestPending, req.Status)
	assert.Equal(t, []string{notifications.EventFriendRequestReceived}, pub.types())
	assert.Equal(t, uint(2), pub.events[0].UserID)
}

func TestRelationshipService_AcceptRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("not addressed to caller", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.getRequestFn = func(_ context.Context, id uint) (*models.FriendRequest, error) {
			return &models.FriendRequest{ID: id, RequesterID: 1, ReceiverID: 2, Status: models.FriendRequestPending}, nil
		}
		svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)
		_, err := svc.AcceptRequest(ctx, 3, 7)
		assertAppCode(t, err, models.CodeNotFound)
	})

	t.Run("not pending", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.getRequestFn = func(_ context.Context, id uint) (*models.FriendRequest, error) {
			return &models.FriendRequest{ID: id, RequesterID: 1, ReceiverID: 2, Status: models.FriendRequestRejected}, nil
		}
		svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)
		_, err := svc.AcceptRequest(ctx, 2, 7)
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("notifies requester", func(t *testing.T) {
		t.Parallel()
		repo := noopRelationshipRepo()
		repo.getRequestFn = func(_ context.Context, id uint) (*models.FriendRequest, error) {
			return &models.FriendRequest{ID: id, RequesterID: 1, ReceiverID: 2, Status: models.FriendRequestPending}, nil
		}
		repo.acceptRequestFn = func(_ context.Context, req *models.FriendRequest) error {
			req.Status = models.FriendRequestAccepted
			return nil
		}
		pub := &recordingPublisher{}
		svc := NewRelationshipService(repo, noopUserRepo(), nil, pub)
		req, err := svc.AcceptRequest(ctx, 2, 7)
		require.NoError(t, err)
		assert.Equal(t, models.FriendRequestAccepted, req.Status)
		require.Len(t, pub.events, 1)
		assert.Equal(t, uint(1), pub.events[0].UserID)
		assert.Equal(t, notifications.EventFriendRequestAccepted, pub.events[0].Type)
	})
}

func TestRelationshipService_Unfriend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := noopRelationshipRepo()
	svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)

	_, err := svc.Unfriend(ctx, 4, 4)
	assertAppCode(t, err, models.CodeValidation)

	repo.unfriendFn = func(context.Context, uint, uint) (bool, error) { return false, nil }
	_, err = svc.Unfriend(ctx, 4, 5)
	assertAppCode(t, err, models.CodeNotFound)
	assert.Equal(t, "Friendship not found", err.Error())
}

func TestRelationshipService_BlockAndUnblock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := noopRelationshipRepo()
	var blocked [2]uint
	repo.blockFn = func(_ context.Context, blocker, target uint) error {
		blocked = [2]uint{blocker, target}
		return nil
	}
	svc := NewRelationshipService(repo, noopUserRepo(), nil, nil)

	_, err := svc.Block(ctx, 1, 1)
	assertAppCode(t, err, models.CodeValidation)

	summary, err := svc.Block(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(2), summary.ID)
	assert.Equal(t, [2]uint{1, 2}, blocked)

	assert.NoError(t, svc.Unblock(ctx, 1, 99))
}
