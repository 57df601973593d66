package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"socialhub/internal/cache"
	"socialhub/internal/featureflags"
	"socialhub/internal/mail"
	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type authFixture struct {
	db     *gorm.DB
	svc    *AuthService
	mailer *captureMailer
}

func newAuthFixture(t *testing.T, flags string) *authFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	media, _ := newMediaService(t, 5)
	mailer := &captureMailer{}
	svc := NewAuthService(AuthDeps{
		Users:    repository.NewUserRepository(db),
		Sessions: repository.NewSessionRepository(db),
		Tokens:   NewTokenManager(testTokenConfig()),
		Media:    media,
		Mailer:   mailer,
		Flags:    featureflags.NewManager(flags),
		BaseURL:  "http://api.test/",
	})
	svc.bcryptCost = bcrypt.MinCost
	return &authFixture{db: db, svc: svc, mailer: mailer}
}

func registerInput(t *testing.T, username, email string) RegisterInput {
	return RegisterInput{
		Username: username,
		Email:    email,
		Password: "secret123",
		Bio:      "hello",
		Location: "Lisbon",
		Avatar:   &Upload{Filename: "a.png", ContentType: "image/png", Content: testutil.PNG(t, 40, 30)},
	}
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t, "")
	ctx := context.Background()

	user, err := f.svc.Register(ctx, registerInput(t, "newbie", " NewBie@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "newbie@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password)
	assert.False(t, user.IsVerified)

	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].TextBody, "http://api.test/auth/verify/"+user.VerificationToken)

	_, err = f.svc.Register(ctx, registerInput(t, "other1", "newbie@example.com"))
	assertAppCode(t, err, models.CodeValidation)
	assert.Equal(t, "User already exists", err.Error())

	in := registerInput(t, "nobio", "nobio@example.com")
	in.Bio = ""
	_, err = f.svc.Register(ctx, in)
	assert.EqualError(t, err, "All fields are required")

	in = registerInput(t, "noavatar", "noavatar@example.com")
	in.Avatar = nil
	_, err = f.svc.Register(ctx, in)
	assertAppCode(t, err, models.CodeValidation)
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	f := newAuthFixture(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "login")

	_, err := f.svc.Login(ctx, user.Email, "wrongpass", SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)
	_, err = f.svc.Login(ctx, "nobody@example.com", testutil.TestPassword, SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)

	first, err := f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{UserAgent: "ua-1", IP: "10.0.0.1"})
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{UserAgent: "ua-2"})
	require.NoError(t, err)

	sessions, err := f.svc.ActiveSessions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	p, err := f.svc.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)

	rotated, err := f.svc.Refresh(ctx, first.RefreshToken, SessionInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.RefreshToken, SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)

	_, err = f.svc.Refresh(ctx, second.RefreshToken, SessionInfo{})
	assert.NoError(t, err, "other sessions are unaffected by rotation")
}

func TestAuthService_LoginRequiresVerificationWhenFlagged(t *testing.T) {
	f := newAuthFixture(t, "require_verified_email=on")
	ctx := context.Background()

	user, err := f.svc.Register(ctx, registerInput(t, "pending", "pending@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "pending@example.com", "secret123", SessionInfo{})
	assertAppCode(t, err, models.CodeForbidden)

	_, err = f.svc.VerifyEmail(ctx, "bogus")
	assertAppCode(t, err, models.CodeValidation)
	verified, err := f.svc.VerifyEmail(ctx, user.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	_, err = f.svc.Login(ctx, "pending@example.com", "secret123", SessionInfo{})
	assert.NoError(t, err)
}

func TestAuthService_LogoutBlacklistsAccessToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	f := newAuthFixture(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "leaver")

	res, err := f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{})
	require.NoError(t, err)
	p, err := f.svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, p))

	_, err = f.svc.Authenticate(ctx, res.AccessToken)
	assertAppCode(t, err, models.CodeUnauthorized)
	_, err = f.svc.Refresh(ctx, res.RefreshToken, SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_LogoutAll(t *testing.T) {
	f := newAuthFixture(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "everywhere")

	a, err := f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{})
	require.NoError(t, err)
	b, err := f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{})
	require.NoError(t, err)

	p, err := f.svc.Authenticate(ctx, a.AccessToken)
	require.NoError(t, err)
	n, err := f.svc.LogoutAll(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = f.svc.Refresh(ctx, b.RefreshToken, SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "forgetful")

	session, err := f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{})
	require.NoError(t, err)

	assertAppCode(t, f.svc.ForgotPassword(ctx, " "), models.CodeValidation)
	require.NoError(t, f.svc.ForgotPassword(ctx, "unknown@example.com"))
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))
	require.Len(t, f.mailer.sent, 1)

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	require.NotEmpty(t, stored.ResetPasswordToken)

	assertAppCode(t, f.svc.ResetPassword(ctx, "wrong-token", "newpass12"), models.CodeValidation)
	assertAppCode(t, f.svc.ResetPassword(ctx, stored.ResetPasswordToken, "short"), models.CodeValidation)
	require.NoError(t, f.svc.ResetPassword(ctx, stored.ResetPasswordToken, "newpass12"))

	_, err = f.svc.Login(ctx, user.Email, testutil.TestPassword, SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)
	_, err = f.svc.Login(ctx, user.Email, "newpass12", SessionInfo{})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, session.RefreshToken, SessionInfo{})
	assertAppCode(t, err, models.CodeUnauthorized)

	// Reset tokens are single use.
	assertAppCode(t, f.svc.ResetPassword(ctx, stored.ResetPasswordToken, "another1"), models.CodeValidation)
}

func TestAuthService_ExpiredResetToken(t *testing.T) {
	f := newAuthFixture(t, "")
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "latecomer")

	past := time.Now().Add(-2 * time.Hour)
	f.svc.now = func() time.Time { return past }
	require.NoError(t, f.svc.ForgotPassword(ctx, user.Email))
	f.svc.now = time.Now

	var stored models.User
	require.NoError(t, f.db.First(&stored, user.ID).Error)
	assertAppCode(t, f.svc.ResetPassword(ctx, stored.ResetPasswordToken, "newpass12"), models.CodeValidation)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 255))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// "é" is two bytes; cutting at 4 would split the second one.
	assert.Equal(t, "aé", truncate("aéé", 4))
	assert.Equal(t, "", truncate("日本", 2))

	agent := strings.Repeat("a", 254) + "日本語"
	got := truncate(agent, 255)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 254), got)
}
