package server

import (
	"time"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) setSessionCookies(c *fiber.Ctx, res *service.AuthResult) {
	secure := s.config.IsProduction()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  res.AccessExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    res.RefreshToken,
		Path:     "/",
		Expires:  res.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   s.config.IsProduction(),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

// Register handles POST /auth/register
// @Summary User registration
// @Description Create an account. The avatar is cropped to a square and re-encoded.
// @Tags auth
// @Accept mpfd
// @Produce json
// @Param username formData string true "Username (5-20 chars)"
// @Param email formData string true "Email"
// @Param password formData string true "Password (8-10 chars)"
// @Param bio formData string true "Bio"
// @Param location formData string true "Location"
// @Param avatar formData file true "Avatar image"
// @Success 201 {object} object{data=models.User}
// @Failure 400 {object} object{message=string}
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Bio:      c.FormValue("bio"),
		Location: c.FormValue("location"),
		Avatar:   avatar,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, user, "User registered successfully")
}

// Login handles POST /auth/login
// @Summary User login
// @Description Authenticate and open a new session. Tokens are also set as httpOnly cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{data=service.AuthResult}
// @Failure 400 {object} object{message=string}
// @Failure 401 {object} object{message=string}
// @Failure 403 {object} object{message=string}
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	res, err := s.authService.Login(c.UserContext(), req.Email, req.Password, sessionInfo(c))
	if err != nil {
		return respondError(c, err)
	}
	s.setSessionCookies(c, res)
	return respond(c, fiber.StatusOK, res, "User logged in successfully")
}

// Refresh handles POST /auth/refresh
// @Summary Rotate session
// @Description Exchange a refresh token (cookie or body) for a new token pair. The old token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refreshToken=string} false "Refresh token when not sent as cookie"
// @Success 200 {object} object{data=service.AuthResult}
// @Failure 401 {object} object{message=string}
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	raw := c.Cookies(middleware.RefreshTokenCookie)
	if raw == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.BodyParser(&req)
		raw = req.RefreshToken
	}

	res, err := s.authService.Refresh(c.UserContext(), raw, sessionInfo(c))
	if err != nil {
		s.clearSessionCookies(c)
		return respondError(c, err)
	}
	s.setSessionCookies(c, res)
	return respond(c, fiber.StatusOK, res, "Access token refreshed")
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, models.NewUnauthorizedError("Unauthorized request"))
	}
	if err := s.authService.Logout(c.UserContext(), p); err != nil {
		return respondError(c, err)
	}
	s.clearSessionCookies(c)
	return respond(c, fiber.StatusOK, nil, "User logged out")
}

// LogoutAll handles POST /auth/logout-all
// @Summary Logout everywhere
// @Description Revoke every session of the caller.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=object{revoked=int}}
// @Router /auth/logout-all [post]
func (s *Server) LogoutAll(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respondError(c, models.NewUnauthorizedError("Unauthorized request"))
	}
	n, err := s.authService.LogoutAll(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	s.clearSessionCookies(c)
	return respond(c, fiber.StatusOK, fiber.Map{"revoked": n}, "All sessions revoked")
}

// GetSessions handles GET /auth/sessions
// @Summary List active sessions
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=[]models.Session}
// @Router /auth/sessions [get]
func (s *Server) GetSessions(c *fiber.Ctx) error {
	sessions, err := s.authService.ActiveSessions(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, sessions, "Active sessions fetched")
}

// VerifyEmail handles GET /auth/verify/:token
// @Summary Verify email address
// @Tags auth
// @Produce json
// @Param token path string true "Verification token"
// @Success 200 {object} object{data=models.User}
// @Failure 400 {object} object{message=string}
// @Router /auth/verify/{token} [get]
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	user, err := s.authService.VerifyEmail(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, user, "Email verified")
}

// ForgotPassword handles POST /auth/forgot-password
// @Summary Request a password reset
// @Description Always succeeds so account existence is not disclosed.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Router /auth/forgot-password [post]
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := s.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "If the account exists, a reset email has been sent")
}

// ResetPassword handles POST /auth/reset-password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{token=string,password=string} true "Reset token and new password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{message=string}
// @Router /auth/reset-password [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	if err := s.authService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return respondError(c, err)
	}
	s.clearSessionCookies(c)
	return respond(c, fiber.StatusOK, nil, "Password has been reset")
}
