package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_ValueAndScan(t *testing.T) {
	v, err := StringList{"go", "fiber"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "go,fiber", v)

	var l StringList
	require.NoError(t, l.Scan([]byte("go, fiber,,gorm ")))
	assert.Equal(t, StringList{"go", "fiber", "gorm"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	assert.Error(t, l.Scan(42))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnauthorizedError("no"), http.StatusUnauthorized},
		{NewForbiddenError("nope"), http.StatusForbidden},
		{NewNotFoundError("Post", 3), http.StatusNotFound},
		{NewInternalError(errors.New("db down")), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewForbiddenError("x")), http.StatusForbidden},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestAppError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewInternalError(cause)
	assert.Equal(t, "Internal server error: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Post with ID 7 not found", NewNotFoundError("Post", 7).Error())
	assert.True(t, IsCode(NewForbiddenError("x"), CodeForbidden))
	assert.False(t, IsCode(errors.New("x"), CodeForbidden))
}

func TestCodeForStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusBadRequest:          CodeValidation,
		http.StatusUnauthorized:        CodeUnauthorized,
		http.StatusNotFound:            CodeNotFound,
		http.StatusMethodNotAllowed:    CodeRequest,
		http.StatusTooManyRequests:     CodeRateLimited,
		http.StatusServiceUnavailable:  CodeUnavailable,
		http.StatusInternalServerError: CodeInternal,
	}
	for status, want := range cases {
		assert.Equal(t, want, CodeForStatus(status), "status %d", status)
	}
}

func TestUser_JSONHidesSecrets(t *testing.T) {
	expires := time.Now()
	u := User{
		ID:                   1,
		Username:             "alice",
		Email:                "alice@example.com",
		Password:             "$2a$10$hash",
		VerificationToken:    "verify",
		ResetPasswordToken:   "reset",
		ResetPasswordExpires: &expires,
	}
	raw, err := json.Marshal(u)
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "hash")
	assert.NotContains(t, body, "verify")
	assert.NotContains(t, body, "reset")
	assert.Contains(t, body, `"username":"alice"`)
}

func TestSession_Active(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, s.Active(now))

	revoked := now
	s.RevokedAt = &revoked
	assert.False(t, s.Active(now))

	s = &Session{ExpiresAt: now.Add(-time.Second)}
	assert.False(t, s.Active(now))
}

func TestEnums(t *testing.T) {
	assert.True(t, VisibilityFriends.Valid())
	assert.False(t, Visibility("secret").Valid())
	assert.True(t, NotificationFriendRequest.Valid())
	assert.False(t, NotificationType("poke").Valid())
}
