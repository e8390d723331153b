package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leadbook/internal/middleware"
	"github.com/iliyamo/leadbook/internal/service"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth   *service.AuthService
	Cookie CookieConfig
}

func NewAuthHandler(auth *service.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = auth.SessionTTL()
	}
	return &AuthHandler{Auth: auth, Cookie: cookie}
}

func (h *AuthHandler) setSession(c echo.Context, s *service.Session) {
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie.Name,
		Value:    s.Token.Token,
		Path:     "/",
		MaxAge:   int(h.Cookie.MaxAge / time.Second),
		Expires:  s.Token.Exp,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register: create user and start a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Auth.Register(ctx, in)
	if err != nil {
		return err
	}
	h.setSession(c, s)
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully", "user": s.User.Public()})
}

// Login: verify credentials and set the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Auth.Login(ctx, in)
	if err != nil {
		return err
	}
	h.setSession(c, s)
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "user": s.User.Public()})
}

// Me returns the caller.  It sits behind the session gate.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return service.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, echo.Map{"user": id.Public()})
}

// Logout expires the cookie.  The token itself stays valid until its exp
// claim; there is no server-side session to revoke.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
