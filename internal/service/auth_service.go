package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"socialhub/internal/cache"
	"socialhub/internal/featureflags"
	"socialhub/internal/mail"
	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns registration, credential checks and the session lifecycle.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *TokenManager
	media    *MediaService
	mailer   mail.Mailer
	flags    *featureflags.Manager

	baseURL    string
	resetTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// AuthDeps groups AuthService collaborators.
type AuthDeps struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Tokens   *TokenManager
	Media    *MediaService
	Mailer   mail.Mailer
	Flags    *featureflags.Manager
	BaseURL  string
	ResetTTL time.Duration
}

// NewAuthService returns an AuthService. A nil Mailer logs messages instead.
func NewAuthService(d AuthDeps) *AuthService {
	mailer := d.Mailer
	if mailer == nil {
		mailer = mail.LogMailer{}
	}
	resetTTL := d.ResetTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	return &AuthService{
		users:      d.Users,
		sessions:   d.Sessions,
		tokens:     d.Tokens,
		media:      d.Media,
		mailer:     mailer,
		flags:      d.Flags,
		baseURL:    strings.TrimRight(d.BaseURL, "/"),
		resetTTL:   resetTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// RegisterInput is the multipart registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Bio      string
	Location string
	Avatar   *Upload
}

// SessionInfo describes the client that opened a session.
type SessionInfo struct {
	UserAgent string
	IP        string
}

// AuthResult is returned by Login and Refresh.
type AuthResult struct {
	User             *models.User `json:"user"`
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
	AccessExpiresAt  time.Time    `json:"-"`
	RefreshExpiresAt time.Time    `json:"-"`
}

// Register creates an account with a normalized avatar and sends the
// verification email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	defer func() { observability.AuthEvents.WithLabelValues("register", observability.Outcome(err)).Inc() }()

	in.Email = validation.NormalizeEmail(in.Email)
	if validation.RequireFields("username", in.Username, "email", in.Email, "password", in.Password,
		"bio", in.Bio, "location", in.Location) != nil {
		return nil, models.NewValidationError("All fields are required")
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateProfile(in.Bio, in.Location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("User already exists")
	}

	avatar, err := s.media.StoreAvatar(ctx, in.Username, in.Avatar)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		s.media.Discard(ctx, avatar)
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:          in.Username,
		Email:             in.Email,
		Password:          string(hash),
		Bio:               in.Bio,
		Location:          in.Location,
		Avatar:            avatar.URL,
		VerificationToken: uuid.NewString(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.media.Discard(ctx, avatar)
		return nil, err
	}

	link := s.baseURL + "/auth/verify/" + user.VerificationToken
	if err := s.mailer.Send(ctx, mail.VerificationMessage(user.Email, user.Username, link)); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to send verification email",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	}
	return user, nil
}

// Login checks credentials and opens a new session. Earlier sessions of the
// same user stay valid.
func (s *AuthService) Login(ctx context.Context, email, password string, info SessionInfo) (res *AuthResult, err error) {
	defer func() { observability.AuthEvents.WithLabelValues("login", observability.Outcome(err)).Inc() }()

	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsVerified && s.flags.Enabled(featureflags.RequireVerifiedEmail, user.ID) {
		return nil, models.NewForbiddenError("Please verify your email before logging in")
	}

	return s.openSession(ctx, user, info)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, info SessionInfo) (*AuthResult, error) {
	sessionID := uuid.NewString()
	refresh, refreshClaims, err := s.tokens.IssueRefresh(user.ID, sessionID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	session := &models.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: HashToken(refresh),
		UserAgent: truncate(info.UserAgent, 255),
		IP:        info.IP,
		ExpiresAt: refreshClaims.ExpiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return s.buildResult(user, session, refresh, refreshClaims)
}

func (s *AuthService) buildResult(user *models.User, session *models.Session, refresh string, refreshClaims TokenClaims) (*AuthResult, error) {
	access, accessClaims, err := s.tokens.IssueAccess(user, session.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{
		User:             user,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair, revoking the
// presented session. A refresh token is accepted at most once.
func (s *AuthService) Refresh(ctx context.Context, raw string, info SessionInfo) (res *AuthResult, err error) {
	defer func() { observability.AuthEvents.WithLabelValues("refresh", observability.Outcome(err)).Inc() }()

	if strings.TrimSpace(raw) == "" {
		return nil, models.NewUnauthorizedError("Refresh token is required")
	}
	claims, err := s.tokens.Parse(raw, RefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Session not found")
		}
		return nil, err
	}
	if session.UserID != claims.UserID || !session.Active(s.now()) ||
		subtle.ConstantTimeCompare([]byte(session.TokenHash), []byte(HashToken(raw))) != 1 {
		return nil, models.NewUnauthorizedError("Refresh token is expired or used")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("User not found")
		}
		return nil, err
	}

	nextID := uuid.NewString()
	refresh, refreshClaims, err := s.tokens.IssueRefresh(user.ID, nextID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	next := &models.Session{
		ID:        nextID,
		UserID:    user.ID,
		TokenHash: HashToken(refresh),
		UserAgent: truncate(info.UserAgent, 255),
		IP:        info.IP,
		ExpiresAt: refreshClaims.ExpiresAt,
	}
	if err := s.sessions.Rotate(ctx, session.ID, next); err != nil {
		return nil, err
	}
	return s.buildResult(user, next, refresh, refreshClaims)
}

// Authenticate implements middleware.Authenticator.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*middleware.Principal, error) {
	claims, err := s.tokens.Parse(raw, AccessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := cache.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		// Blacklist lookups fail open.
		middleware.Logger.WarnContext(ctx, "Token blacklist lookup failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("User not found")
		}
		return nil, err
	}

	return &middleware.Principal{
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: claims.SessionID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Logout revokes the caller's session and blacklists the access token for
// the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, p *middleware.Principal) (err error) {
	defer func() { observability.AuthEvents.WithLabelValues("logout", observability.Outcome(err)).Inc() }()

	if err := s.sessions.Revoke(ctx, p.SessionID); err != nil {
		return err
	}
	s.blacklist(ctx, p)
	return nil
}

// LogoutAll revokes every session of the caller.
func (s *AuthService) LogoutAll(ctx context.Context, p *middleware.Principal) (int64, error) {
	n, err := s.sessions.RevokeAllForUser(ctx, p.UserID)
	observability.AuthEvents.WithLabelValues("logout_all", observability.Outcome(err)).Inc()
	if err != nil {
		return 0, err
	}
	s.blacklist(ctx, p)
	return n, nil
}

func (s *AuthService) blacklist(ctx context.Context, p *middleware.Principal) {
	if err := cache.Blacklist(ctx, p.TokenID, time.Until(p.ExpiresAt)); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to blacklist access token", slog.String("error", err.Error()))
	}
}

// VerifyEmail marks the owner of token as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.GetByVerificationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewValidationError("Invalid or expired verification token")
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.VerificationToken = ""
	return user, nil
}

// ForgotPassword emails a reset token when the address belongs to an
// account. It reports success either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return models.NewValidationError("Email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token := uuid.NewString()
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, mail.PasswordResetMessage(user.Email, user.Username, token)); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to send password reset email",
			slog.Uint64("user_id", uint64(user.ID)), slog.String("error", err.Error()))
	}
	return nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer func() { observability.AuthEvents.WithLabelValues("reset_password", observability.Outcome(err)).Inc() }()

	if strings.TrimSpace(token) == "" {
		return models.NewValidationError("Reset token is required")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.users.GetByResetToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if user == nil || user.ResetPasswordExpires == nil || s.now().After(*user.ResetPasswordExpires) {
		return models.NewValidationError("Invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.SetPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	if _, err := s.sessions.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}
	return nil
}

// ActiveSessions lists the caller's live sessions.
func (s *AuthService) ActiveSessions(ctx context.Context, userID uint) ([]models.Session, error) {
	return s.sessions.ListActive(ctx, userID)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var _ middleware.Authenticator = (*AuthService)(nil)
