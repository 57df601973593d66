package repository

import (
	"context"
	"testing"
	"time"

	"socialhub/internal/models"
	"socialhub/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPost(t *testing.T, db *gorm.DB, author *models.User, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: author.ID, Content: content, Visibility: models.VisibilityPublic}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post))
	return post
}

func newComment(t *testing.T, db *gorm.DB, postID uint, author *models.User, parent *uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, UserID: author.ID, ParentCommentID: parent, Content: content}
	require.NoError(t, NewCommentRepository(db).Create(context.Background(), c))
	return c
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "alice1", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))

	dup := &models.User{Username: "alice2", Email: "alice@example.com", Password: "hash"}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Equal(t, "User already exists", err.Error())
}

func TestUserRepository_Lookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "lookup")

	got, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.Password)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	users, err := repo.GetByIDs(ctx, []uint{u.ID, u.ID, 0})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_TokensAndPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "tokens")

	require.NoError(t, repo.UpdateProfile(ctx, u.ID, map[string]interface{}{"verification_token": "verify-me", "is_verified": false}))
	got, err := repo.GetByVerificationToken(ctx, "verify-me")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, repo.MarkVerified(ctx, u.ID))
	got, err = repo.GetByVerificationToken(ctx, "verify-me")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.SetResetToken(ctx, u.ID, "reset-me", time.Now().Add(time.Hour)))
	got, err = repo.GetByResetToken(ctx, "reset-me")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ResetPasswordExpires)

	require.NoError(t, repo.SetPassword(ctx, u.ID, "new-hash"))
	got, err = repo.GetByResetToken(ctx, "reset-me")
	require.NoError(t, err)
	assert.Nil(t, got)

	fresh, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", fresh.Password)
	assert.True(t, fresh.IsVerified)

	assert.True(t, models.IsCode(repo.SetPassword(ctx, 9999, "x"), models.CodeNotFound))
}

func TestUserRepository_SearchEscapesWildcards(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	testutil.CreateUser(t, db, "Carol_X")
	testutil.CreateUser(t, db, "carolyn")

	users, err := repo.Search(ctx, "CAROL", 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.Search(ctx, "l_x", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Carol_X", users[0].Username)

	users, err = repo.Search(ctx, "100%", 10)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSearch_FoldsNonASCIICase(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "baker")
	post := newPost(t, db, author, "Éclair day at the ÖLBAR")
	newComment(t, db, post.ID, author, nil, "Ça marche")

	posts := NewPostRepository(db)
	for _, q := range []string{"Éclair", "éclair", "ÉCLAIR", "ölbar"} {
		got, err := posts.Search(ctx, q, 0, 10)
		require.NoError(t, err)
		assert.Len(t, got, 1, "query %q", q)
	}

	comments, err := NewCommentRepository(db).Search(ctx, "çA", 0, 10)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestSessionRepository_RotateOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "sessions")

	first := &models.Session{ID: uuid.NewString(), UserID: u.ID, TokenHash: "a", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.Session{ID: uuid.NewString(), UserID: u.ID, TokenHash: "b", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Rotate(ctx, first.ID, second))

	third := &models.Session{ID: uuid.NewString(), UserID: u.ID, TokenHash: "c", ExpiresAt: time.Now().Add(time.Hour)}
	err := repo.Rotate(ctx, first.ID, third)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	_, err = repo.GetByID(ctx, third.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "failed rotation must not insert")

	old, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Active(time.Now()))

	active, err := repo.ListActive(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	n, err := repo.RevokeAllForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := repo.DeleteExpired(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestPostRepository_ListWithCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	viewer := testutil.CreateUser(t, db, "viewer")

	older := newPost(t, db, author, "first post")
	newer := newPost(t, db, author, "second post")
	newComment(t, db, older.ID, viewer, nil, "nice")

	inserted, err := repo.Like(ctx, viewer.ID, older.ID)
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = repo.Like(ctx, viewer.ID, older.ID)
	require.NoError(t, err)
	assert.False(t, inserted, "second like is a no-op")

	posts, total, err := repo.List(ctx, viewer.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
	assert.Equal(t, 1, posts[1].LikesCount)
	assert.Equal(t, 1, posts[1].CommentsCount)
	assert.True(t, posts[1].Liked)
	assert.False(t, posts[0].Liked)
	assert.Equal(t, "author", posts[1].Author.Username)

	anon, err := repo.GetByID(ctx, older.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.Liked)
	assert.Equal(t, 1, anon.LikesCount)

	removed, err := repo.Unlike(ctx, viewer.ID, older.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Unlike(ctx, viewer.ID, older.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")

	post := newPost(t, db, author, "doomed")
	c := newComment(t, db, post.ID, author, nil, "top")
	newComment(t, db, post.ID, author, &c.ID, "reply")
	_, err := comments.Like(ctx, author.ID, c.ID)
	require.NoError(t, err)
	_, err = repo.Like(ctx, author.ID, post.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, post.ID))

	var n int64
	db.Model(&models.Comment{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.CommentLike{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.PostLike{}).Count(&n)
	assert.Zero(t, n)

	assert.True(t, models.IsCode(repo.Delete(ctx, post.ID), models.CodeNotFound))
}

func TestPostRepository_SearchMatchesTags(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "tagger")

	post := &models.Post{UserID: author.ID, Content: "hello", Tags: models.StringList{"golang", "fiber"}, Location: "Porto"}
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.Search(ctx, "GoLang", 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.StringList{"golang", "fiber"}, got[0].Tags)

	got, err = repo.Search(ctx, "porto", 0, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCommentRepository_DeleteWithReplies(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := newPost(t, db, author, "post")

	parent := newComment(t, db, post.ID, author, nil, "parent")
	reply := newComment(t, db, post.ID, author, &parent.ID, "reply")
	nested := newComment(t, db, post.ID, author, &reply.ID, "nested")
	sibling := newComment(t, db, post.ID, author, nil, "sibling")
	_, err := repo.Like(ctx, author.ID, reply.ID)
	require.NoError(t, err)
	_, err = repo.Like(ctx, author.ID, nested.ID)
	require.NoError(t, err)
	_, err = repo.Like(ctx, author.ID, sibling.ID)
	require.NoError(t, err)

	all, err := repo.ListByPost(ctx, post.ID, author.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, c := range all {
		switch c.ID {
		case parent.ID, reply.ID:
			assert.Equal(t, 1, c.RepliesCount)
		}
	}

	require.NoError(t, repo.DeleteWithReplies(ctx, parent.ID))

	for _, id := range []uint{parent.ID, reply.ID, nested.ID} {
		_, err = repo.GetByID(ctx, id, 0)
		assert.True(t, models.IsCode(err, models.CodeNotFound), "comment %d", id)
	}
	left, err := repo.GetByID(ctx, sibling.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, left.LikesCount)
	assert.True(t, left.Liked)

	var likes int64
	db.Model(&models.CommentLike{}).Count(&likes)
	assert.Equal(t, int64(1), likes)

	assert.True(t, models.IsCode(repo.DeleteWithReplies(ctx, parent.ID), models.CodeNotFound))
}

func TestCommentRepository_ListByPosts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	p1 := newPost(t, db, author, "one")
	p2 := newPost(t, db, author, "two")
	c := newComment(t, db, p1.ID, author, nil, "on one")
	newComment(t, db, p1.ID, author, &c.ID, "reply on one")
	newComment(t, db, p2.ID, author, nil, "on two")

	grouped, err := repo.ListByPosts(ctx, []uint{p1.ID, p2.ID}, 0)
	require.NoError(t, err)
	assert.Len(t, grouped[p1.ID], 1)
	assert.Len(t, grouped[p2.ID], 1)
	assert.Equal(t, "author", grouped[p2.ID][0].Author.Username)
}

func TestRelationshipRepository_AcceptIsSymmetric(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bobby")

	req := &models.FriendRequest{RequesterID: a.ID, ReceiverID: b.ID}
	require.NoError(t, repo.CreateRequest(ctx, req))

	pending, err := repo.FindPendingRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)

	incoming, err := repo.ListIncoming(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	require.NotNil(t, incoming[0].Sender)
	assert.Equal(t, "alice", incoming[0].Sender.Username)

	require.NoError(t, repo.AcceptRequest(ctx, req))
	err = repo.AcceptRequest(ctx, req)
	assert.True(t, models.IsCode(err, models.CodeValidation), "request resolves once")

	ab, err := repo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ba, err := repo.AreFriends(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ab)
	assert.True(t, ba)

	friends, err := repo.ListFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b.ID, friends[0].ID)

	removed, err := repo.Unfriend(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	var n int64
	db.Model(&models.Friendship{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.FriendRequest{}).Count(&n)
	assert.Zero(t, n, "accepted request is deleted on unfriend")
}

func TestRelationshipRepository_OnePendingRequestPerPair(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bobby")

	first := &models.FriendRequest{RequesterID: a.ID, ReceiverID: b.ID}
	require.NoError(t, repo.CreateRequest(ctx, first))

	err := repo.CreateRequest(ctx, &models.FriendRequest{RequesterID: a.ID, ReceiverID: b.ID})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Contains(t, err.Error(), "Friend request already sent")

	require.NoError(t, repo.CreateRequest(ctx, &models.FriendRequest{RequesterID: b.ID, ReceiverID: a.ID}),
		"the other direction is a separate pair")

	require.NoError(t, repo.RejectRequest(ctx, first))
	require.NoError(t, repo.CreateRequest(ctx, &models.FriendRequest{RequesterID: a.ID, ReceiverID: b.ID}),
		"resolved requests do not block a new one")

	var pending int64
	require.NoError(t, db.Model(&models.FriendRequest{}).
		Where("requester_id = ? AND receiver_id = ? AND status = ?", a.ID, b.ID, models.FriendRequestPending).
		Count(&pending).Error)
	assert.EqualValues(t, 1, pending)
}

func TestRelationshipRepository_BlockSevers(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRelationshipRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "alice")
	b := testutil.CreateUser(t, db, "bobby")
	c := testutil.CreateUser(t, db, "carol")

	req := &models.FriendRequest{RequesterID: a.ID, ReceiverID: b.ID}
	require.NoError(t, repo.CreateRequest(ctx, req))
	require.NoError(t, repo.AcceptRequest(ctx, req))
	require.NoError(t, repo.CreateRequest(ctx, &models.FriendRequest{RequesterID: c.ID, ReceiverID: a.ID}))
	require.NoError(t, repo.CreateRequest(ctx, &models.FriendRequest{RequesterID: c.ID, ReceiverID: b.ID}))

	require.NoError(t, repo.Block(ctx, a.ID, b.ID))
	require.NoError(t, repo.Block(ctx, a.ID, b.ID), "block is idempotent")
	require.NoError(t, repo.Block(ctx, a.ID, c.ID))

	friends, err := repo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	blocked, err := repo.IsBlockedEither(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	pending, err := repo.FindPendingRequest(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.Nil(t, pending, "block voids pending requests")
	pending, err = repo.FindPendingRequest(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, pending, "unrelated requests survive")

	list, err := repo.ListBlocked(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Unblock(ctx, a.ID, b.ID))
	require.NoError(t, repo.Unblock(ctx, a.ID, b.ID))
	blocked, err = repo.IsBlockedEither(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestNotificationRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	sender := testutil.CreateUser(t, db, "sender")
	receiver := testutil.CreateUser(t, db, "receiver")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			SenderID: sender.ID, ReceiverID: receiver.ID, Type: models.NotificationLike, Message: "liked",
		}))
	}

	list, err := repo.ListByReceiver(ctx, receiver.ID, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sender", list[0].SenderSummary.Username)
	assert.False(t, list[0].IsRead)

	require.NoError(t, repo.MarkRead(ctx, list[0].ID))
	unread, err := repo.CountUnread(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	onlyUnread, err := repo.ListByReceiver(ctx, receiver.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, onlyUnread, 2)

	n, err := repo.MarkAllRead(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.Delete(ctx, list[1].ID))
	assert.True(t, models.IsCode(repo.Delete(ctx, list[1].ID), models.CodeNotFound))
	_, err = repo.GetByID(ctx, list[1].ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
