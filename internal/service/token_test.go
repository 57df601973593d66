package service

import (
	"testing"
	"time"

	"socialhub/internal/config"
	"socialhub/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenConfig() *config.Config {
	return &config.Config{
		JWTSecret:             "access-secret-for-tests-0123456789",
		JWTRefreshSecret:      "refresh-secret-for-tests-0123456789",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  24,
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()
	m := NewTokenManager(testTokenConfig())

	raw, issued, err := m.IssueAccess(&models.User{ID: 7, Username: "alice", Email: "a@example.com"}, "sess-1")
	require.NoError(t, err)

	claims, err := m.Parse(raw, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestTokenManager_KindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	m := NewTokenManager(testTokenConfig())

	refresh, _, err := m.IssueRefresh(3, "sess-2")
	require.NoError(t, err)
	_, err = m.Parse(refresh, AccessToken)
	assertAppCode(t, err, models.CodeUnauthorized)

	access, _, err := m.IssueAccess(&models.User{ID: 3}, "sess-2")
	require.NoError(t, err)
	_, err = m.Parse(access, RefreshToken)
	assertAppCode(t, err, models.CodeUnauthorized)
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()
	m := NewTokenManager(testTokenConfig())
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	raw, _, err := m.IssueAccess(&models.User{ID: 1}, "s")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(raw, AccessToken)
	assertAppCode(t, err, models.CodeUnauthorized)
	assert.Equal(t, "Token has expired", err.Error())
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	t.Parallel()
	m := NewTokenManager(testTokenConfig())

	tests := map[string]jwt.MapClaims{
		"wrong issuer": {"sub": "1", "iss": "other", "aud": tokenAudience, "exp": time.Now().Add(time.Minute).Unix(), "jti": "j", "sid": "s", "typ": "access"},
		"no expiry":    {"sub": "1", "iss": tokenIssuer, "aud": tokenAudience, "jti": "j", "sid": "s", "typ": "access"},
		"no session":   {"sub": "1", "iss": tokenIssuer, "aud": tokenAudience, "exp": time.Now().Add(time.Minute).Unix(), "jti": "j", "typ": "access"},
		"bad subject":  {"sub": "abc", "iss": tokenIssuer, "aud": tokenAudience, "exp": time.Now().Add(time.Minute).Unix(), "jti": "j", "sid": "s", "typ": "access"},
	}
	for name, claims := range tests {
		t.Run(name, func(t *testing.T) {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
			require.NoError(t, err)
			_, err = m.Parse(raw, AccessToken)
			assertAppCode(t, err, models.CodeUnauthorized)
		})
	}

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("not-our-secret"))
	require.NoError(t, err)
	_, err = m.Parse(other, AccessToken)
	assertAppCode(t, err, models.CodeUnauthorized)
}

func TestHashToken(t *testing.T) {
	t.Parallel()
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
}
