// Package middleware provides request-scoped HTTP middleware: logging,
// authentication, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// AccessTokenCookie carries the access token for browser clients.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie carries the refresh token for browser clients.
	RefreshTokenCookie = "refreshToken"

	principalLocal = "principal"
)

// ErrNoToken is returned by TokenFromRequest when the request carries no
// credentials at all.
var ErrNoToken = errors.New("no access token provided")

// Principal is the authenticated caller resolved from an access token.
type Principal struct {
	UserID    uint
	Username  string
	SessionID string
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator validates an access token and resolves its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// TokenFromRequest extracts the access token from the Authorization header,
// the accessToken cookie, or (for websocket upgrades) the token query param.
func TokenFromRequest(c *fiber.Ctx) (string, error) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid authorization header format")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie, nil
	}
	if q := c.Query("token"); q != "" {
		return q, nil
	}
	return "", ErrNoToken
}

// AuthRequired is a middleware that enforces authentication for protected routes.
// On success it stores the caller's id in c.Locals("userID") and the full
// Principal in c.Locals("principal").
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := TokenFromRequest(c)
		if err != nil {
			return errorEnvelope(c, fiber.StatusUnauthorized, "Unauthorized request")
		}

		principal, err := auth.Authenticate(c.UserContext(), token)
		if err != nil || principal == nil {
			return errorEnvelope(c, fiber.StatusUnauthorized, "Invalid or expired access token")
		}

		c.Locals("userID", principal.UserID)
		c.Locals(principalLocal, principal)
		c.SetUserContext(enrichContext(c))

		return c.Next()
	}
}

// PrincipalFrom returns the authenticated principal for the request, if any.
func PrincipalFrom(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalLocal).(*Principal)
	return p, ok
}
