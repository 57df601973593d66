package server

import (
	"net/http"
	"strings"
	"testing"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrationFields(username, email string) map[string]string {
	return map[string]string{
		"username": username,
		"email":    email,
		"password": "hunter2pw",
		"bio":      "likes hiking",
		"location": "Porto",
	}
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)
	avatar := map[string][]byte{"avatar": testutil.PNG(t, 320, 200)}

	res := ts.do(multipartRequest(t, http.MethodPost, "/auth/register",
		registrationFields("newbie", "  NewBie@Example.com "), avatar))
	require.Equal(t, http.StatusCreated, res.Status, res.Body)
	assert.Equal(t, true, res.Body["success"])

	user := res.data()
	assert.Equal(t, "newbie", user["username"])
	assert.Equal(t, "newbie@example.com", user["email"])
	assert.True(t, strings.HasPrefix(user["avatar"].(string), "/uploads/"), user["avatar"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "verificationToken")
	assert.Contains(t, ts.mail.last(t).TextBody, "http://api.test/auth/verify/")

	t.Run("duplicate email", func(t *testing.T) {
		dup := ts.do(multipartRequest(t, http.MethodPost, "/auth/register",
			registrationFields("another", "newbie@example.com"), avatar))
		assert.Equal(t, http.StatusBadRequest, dup.Status)
		assert.Equal(t, "User already exists", dup.Body["message"])
	})

	t.Run("missing avatar", func(t *testing.T) {
		res := ts.do(multipartRequest(t, http.MethodPost, "/auth/register",
			registrationFields("noavatar", "noavatar@example.com"), nil))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "Avatar file is required", res.Body["message"])
	})

	t.Run("missing fields", func(t *testing.T) {
		fields := registrationFields("partial", "partial@example.com")
		delete(fields, "bio")
		res := ts.do(multipartRequest(t, http.MethodPost, "/auth/register", fields, avatar))
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, "All fields are required", res.Body["message"])
	})
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "logger")

	t.Run("wrong password", func(t *testing.T) {
		res := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": user.Email, "password": "nottheone"})
		assert.Equal(t, http.StatusUnauthorized, res.Status)
		assert.Equal(t, "Invalid credentials", res.Body["message"])
		assert.Equal(t, models.CodeUnauthorized, res.Body["code"])
	})

	t.Run("unknown email", func(t *testing.T) {
		res := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": "ghost@example.com", "password": "whatever1"})
		assert.Equal(t, http.StatusUnauthorized, res.Status)
	})

	t.Run("missing fields", func(t *testing.T) {
		res := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": user.Email})
		assert.Equal(t, http.StatusBadRequest, res.Status)
	})

	t.Run("success sets cookies", func(t *testing.T) {
		res := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": user.Email, "password": testutil.TestPassword})
		require.Equal(t, http.StatusOK, res.Status)
		assert.NotEmpty(t, res.data()["accessToken"])
		assert.NotEmpty(t, res.data()["refreshToken"])

		cookies := strings.Join(res.Header.Values("Set-Cookie"), "\n")
		assert.Contains(t, cookies, middleware.AccessTokenCookie+"=")
		assert.Contains(t, cookies, middleware.RefreshTokenCookie+"=")
		assert.Contains(t, strings.ToLower(cookies), "httponly")
		assert.Contains(t, strings.ToLower(cookies), "samesite=lax")
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/users/me", "/posts", "/friends", "/notifications", "/search/users?query=a"} {
		res := ts.call(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Status, path)
		assert.Equal(t, false, res.Body["success"], path)
	}

	res := ts.call(http.MethodGet, "/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAccessTokenCookieAuthenticates(t *testing.T) {
	ts := newTestServer(t)
	user, token := ts.member("cookie")

	req := ts.requestWithCookie(http.MethodGet, "/users/me", middleware.AccessTokenCookie, token)
	res := ts.do(req)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, user.Username, res.data()["username"])
}

func TestRefreshRotatesSession(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "rotator")

	login := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": user.Email, "password": testutil.TestPassword})
	require.Equal(t, http.StatusOK, login.Status)
	oldRefresh := login.data()["refreshToken"].(string)

	first := ts.call(http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": oldRefresh})
	require.Equal(t, http.StatusOK, first.Status, first.Body)
	newRefresh := first.data()["refreshToken"].(string)
	assert.NotEqual(t, oldRefresh, newRefresh)

	replay := ts.call(http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": oldRefresh})
	assert.Equal(t, http.StatusUnauthorized, replay.Status)

	viaCookie := ts.do(ts.requestWithCookie(http.MethodPost, "/auth/refresh", middleware.RefreshTokenCookie, newRefresh))
	assert.Equal(t, http.StatusOK, viaCookie.Status)

	missing := ts.call(http.MethodPost, "/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, missing.Status)
}

func TestTwoLoginsKeepTwoSessions(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "twice")

	a := ts.login(user)
	b := ts.login(user)

	for _, token := range []string{a, b} {
		assert.Equal(t, http.StatusOK, ts.call(http.MethodGet, "/users/me", token, nil).Status)
	}
	sessions := ts.call(http.MethodGet, "/auth/sessions", a, nil)
	require.Equal(t, http.StatusOK, sessions.Status)
	assert.Len(t, sessions.list(), 2)
}

func TestLogoutAllRevokesRefreshTokens(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "leaver")

	login := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": user.Email, "password": testutil.TestPassword})
	require.Equal(t, http.StatusOK, login.Status)
	access := login.data()["accessToken"].(string)
	refresh := login.data()["refreshToken"].(string)

	res := ts.call(http.MethodPost, "/auth/logout-all", access, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, float64(1), res.data()["revoked"])

	again := ts.call(http.MethodPost, "/auth/refresh", "", fiber.Map{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, again.Status)
}

func TestVerifyEmail(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "verifier")
	require.NoError(t, ts.db.Model(&models.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"is_verified": false, "verification_token": "tok-123"}).Error)

	res := ts.call(http.MethodGet, "/auth/verify/tok-123", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, true, res.data()["isVerified"])

	reused := ts.call(http.MethodGet, "/auth/verify/tok-123", "", nil)
	assert.Equal(t, http.StatusBadRequest, reused.Status)
}

func TestPasswordResetFlow(t *testing.T) {
	ts := newTestServer(t)
	user := testutil.CreateUser(t, ts.db, "forgetful")

	unknown := ts.call(http.MethodPost, "/auth/forgot-password", "", fiber.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, unknown.Status)

	res := ts.call(http.MethodPost, "/auth/forgot-password", "", fiber.Map{"email": user.Email})
	require.Equal(t, http.StatusOK, res.Status)

	var stored models.User
	require.NoError(t, ts.db.First(&stored, user.ID).Error)
	require.NotEmpty(t, stored.ResetPasswordToken)
	assert.Contains(t, ts.mail.last(t).TextBody, stored.ResetPasswordToken)

	bad := ts.call(http.MethodPost, "/auth/reset-password", "", fiber.Map{"token": "wrong", "password": "brandnew1"})
	assert.Equal(t, http.StatusBadRequest, bad.Status)

	ok := ts.call(http.MethodPost, "/auth/reset-password", "", fiber.Map{"token": stored.ResetPasswordToken, "password": "brandnew1"})
	require.Equal(t, http.StatusOK, ok.Status, ok.Body)

	login := ts.call(http.MethodPost, "/auth/login", "", fiber.Map{"email": user.Email, "password": "brandnew1"})
	assert.Equal(t, http.StatusOK, login.Status)
}
