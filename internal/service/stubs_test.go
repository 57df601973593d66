package service

import (
	"context"
	"sync"
	"time"

	"socialhub/internal/models"
)

type userRepoStub struct {
	getByIDFn                func(context.Context, uint) (*models.User, error)
	getByIDsFn               func(context.Context, []uint) ([]models.User, error)
	getByEmailFn             func(context.Context, string) (*models.User, error)
	getByVerificationTokenFn func(context.Context, string) (*models.User, error)
	getByResetTokenFn        func(context.Context, string) (*models.User, error)
	createFn                 func(context.Context, *models.User) error
	updateProfileFn          func(context.Context, uint, map[string]interface{}) error
	markVerifiedFn           func(context.Context, uint) error
	setResetTokenFn          func(context.Context, uint, string, time.Time) error
	setPasswordFn            func(context.Context, uint, string) error
	searchFn                 func(context.Context, string, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return s.getByVerificationTokenFn(ctx, token)
}
func (s *userRepoStub) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.getByResetTokenFn(ctx, token)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, updates map[string]interface{}) error {
	return s.updateProfileFn(ctx, id, updates)
}
func (s *userRepoStub) MarkVerified(ctx context.Context, id uint) error {
	return s.markVerifiedFn(ctx, id)
}
func (s *userRepoStub) SetResetToken(ctx context.Context, id uint, token string, expires time.Time) error {
	return s.setResetTokenFn(ctx, id, token, expires)
}
func (s *userRepoStub) SetPassword(ctx context.Context, id uint, hash string) error {
	return s.setPasswordFn(ctx, id, hash)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByIDsFn:               func(context.Context, []uint) ([]models.User, error) { return nil, nil },
		getByEmailFn:             func(context.Context, string) (*models.User, error) { return nil, nil },
		getByVerificationTokenFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByResetTokenFn:        func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:                 func(context.Context, *models.User) error { return nil },
		updateProfileFn:          func(context.Context, uint, map[string]interface{}) error { return nil },
		markVerifiedFn:           func(context.Context, uint) error { return nil },
		setResetTokenFn:          func(context.Context, uint, string, time.Time) error { return nil },
		setPasswordFn:            func(context.Context, uint, string) error { return nil },
		searchFn:                 func(context.Context, string, int) ([]models.User, error) { return nil, nil },
	}
}

type relationshipRepoStub struct {
	getRequestFn         func(context.Context, uint) (*models.FriendRequest, error)
	findPendingRequestFn func(context.Context, uint, uint) (*models.FriendRequest, error)
	areFriendsFn         func(context.Context, uint, uint) (bool, error)
	isBlockedEitherFn    func(context.Context, uint, uint) (bool, error)
	createRequestFn      func(context.Context, *models.FriendRequest) error
	acceptRequestFn      func(context.Context, *models.FriendRequest) error
	rejectRequestFn      func(context.Context, *models.FriendRequest) error
	listIncomingFn       func(context.Context, uint) ([]models.FriendRequest, error)
	listOutgoingFn       func(context.Context, uint) ([]models.FriendRequest, error)
	listFriendsFn        func(context.Context, uint) ([]models.User, error)
	unfriendFn           func(context.Context, uint, uint) (bool, error)
	blockFn              func(context.Context, uint, uint) error
	unblockFn            func(context.Context, uint, uint) error
	listBlockedFn        func(context.Context, uint) ([]models.User, error)
}

func (s *relationshipRepoStub) GetRequest(ctx context.Context, id uint) (*models.FriendRequest, error) {
	return s.getRequestFn(ctx, id)
}
func (s *relationshipRepoStub) FindPendingRequest(ctx context.Context, requesterID, receiverID uint) (*models.FriendRequest, error) {
	return s.findPendingRequestFn(ctx, requesterID, receiverID)
}
func (s *relationshipRepoStub) AreFriends(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.areFriendsFn(ctx, userID, otherID)
}
func (s *relationshipRepoStub) IsBlockedEither(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.isBlockedEitherFn(ctx, userID, otherID)
}
func (s *relationshipRepoStub) CreateRequest(ctx context.Context, req *models.FriendRequest) error {
	return s.createRequestFn(ctx, req)
}
func (s *relationshipRepoStub) AcceptRequest(ctx context.Context, req *models.FriendRequest) error {
	return s.acceptRequestFn(ctx, req)
}
func (s *relationshipRepoStub) RejectRequest(ctx context.Context, req *models.FriendRequest) error {
	return s.rejectRequestFn(ctx, req)
}
func (s *relationshipRepoStub) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.listIncomingFn(ctx, userID)
}
func (s *relationshipRepoStub) ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.listOutgoingFn(ctx, userID)
}
func (s *relationshipRepoStub) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFriendsFn(ctx, userID)
}
func (s *relationshipRepoStub) Unfriend(ctx context.Context, userID, friendID uint) (bool, error) {
	return s.unfriendFn(ctx, userID, friendID)
}
func (s *relationshipRepoStub) Block(ctx context.Context, blockerID, blockedID uint) error {
	return s.blockFn(ctx, blockerID, blockedID)
}
func (s *relationshipRepoStub) Unblock(ctx context.Context, blockerID, blockedID uint) error {
	return s.unblockFn(ctx, blockerID, blockedID)
}
func (s *relationshipRepoStub) ListBlocked(ctx context.Context, blockerID uint) ([]models.User, error) {
	return s.listBlockedFn(ctx, blockerID)
}

func noopRelationshipRepo() *relationshipRepoStub {
	return &relationshipRepoStub{
		getRequestFn: func(_ context.Context, id uint) (*models.FriendRequest, error) {
			return &models.FriendRequest{ID: id, Status: models.FriendRequestPending}, nil
		},
		findPendingRequestFn: func(context.Context, uint, uint) (*models.FriendRequest, error) { return nil, nil },
		areFriendsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		isBlockedEitherFn:    func(context.Context, uint, uint) (bool, error) { return false, nil },
		createRequestFn:      func(context.Context, *models.FriendRequest) error { return nil },
		acceptRequestFn:      func(context.Context, *models.FriendRequest) error { return nil },
		rejectRequestFn:      func(context.Context, *models.FriendRequest) error { return nil },
		listIncomingFn:       func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		listOutgoingFn:       func(context.Context, uint) ([]models.FriendRequest, error) { return nil, nil },
		listFriendsFn:        func(context.Context, uint) ([]models.User, error) { return nil, nil },
		unfriendFn:           func(context.Context, uint, uint) (bool, error) { return true, nil },
		blockFn:              func(context.Context, uint, uint) error { return nil },
		unblockFn:            func(context.Context, uint, uint) error { return nil },
		listBlockedFn:        func(context.Context, uint) ([]models.User, error) { return nil, nil },
	}
}

type publishedEvent struct {
	UserID  uint
	Type    string
	Payload interface{}
}

// recordingPublisher captures realtime events instead of delivering them.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
