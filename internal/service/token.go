package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"socialhub/internal/config"
	"socialhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "socialhub-api"
	tokenAudience = "socialhub-client"
)

// TokenKind distinguishes access from refresh tokens via the typ claim.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims is the validated content of a token.
type TokenClaims struct {
	UserID    uint
	Username  string
	Email     string
	ID        string
	SessionID string
	Kind      TokenKind
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 tokens. Access and refresh tokens
// use separate secrets so one cannot be replayed as the other.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager builds a TokenManager from the token settings in cfg.
func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL(),
		refreshTTL:    cfg.RefreshTokenTTL(),
		now:           time.Now,
	}
}

// AccessTTL is the lifetime of access tokens.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL is the lifetime of refresh tokens and their sessions.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess signs an access token for user bound to sessionID.
func (m *TokenManager) IssueAccess(user *models.User, sessionID string) (string, TokenClaims, error) {
	now := m.now()
	tc := TokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      AccessToken,
		ExpiresAt: now.Add(m.accessTTL),
	}
	claims := m.baseClaims(tc, now)
	claims["username"] = user.Username
	claims["email"] = user.Email

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", TokenClaims{}, err
	}
	return signed, tc, nil
}

// IssueRefresh signs a refresh token whose jti is the session id.
func (m *TokenManager) IssueRefresh(userID uint, sessionID string) (string, TokenClaims, error) {
	now := m.now()
	tc := TokenClaims{
		UserID:    userID,
		ID:        sessionID,
		SessionID: sessionID,
		Kind:      RefreshToken,
		ExpiresAt: now.Add(m.refreshTTL),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, m.baseClaims(tc, now)).SignedString(m.refreshSecret)
	if err != nil {
		return "", TokenClaims{}, err
	}
	return signed, tc, nil
}

func (m *TokenManager) baseClaims(tc TokenClaims, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(tc.UserID), 10),
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": tc.ExpiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": tc.ID,
		"sid": tc.SessionID,
		"typ": string(tc.Kind),
	}
}

// Parse verifies signature, issuer, audience, expiry and type. Every failure
// is an UNAUTHORIZED AppError.
func (m *TokenManager) Parse(raw string, kind TokenKind) (*TokenClaims, error) {
	secret := m.accessSecret
	if kind == RefreshToken {
		secret = m.refreshSecret
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	token, err := parser.Parse(raw, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewUnauthorizedError("Token has expired")
		}
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != string(kind) {
		return nil, models.NewUnauthorizedError("Invalid token type")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}

	out := &TokenClaims{
		UserID:    uint(userID),
		Kind:      kind,
		ExpiresAt: exp.Time,
	}
	out.ID, _ = claims["jti"].(string)
	out.SessionID, _ = claims["sid"].(string)
	out.Username, _ = claims["username"].(string)
	out.Email, _ = claims["email"].(string)
	if out.ID == "" || out.SessionID == "" {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	return out, nil
}

// HashToken is the hex SHA-256 of a token as stored on its session.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
