package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/service"
)

// Authenticator turns a raw session token into a verified identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// SessionAuth reads the session token from the named cookie, falling back
// to an "Authorization: Bearer" header, verifies it and stores the caller's
// identity for the handlers behind it.
func SessionAuth(auth Authenticator, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c, cookieName)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "No token, authorization denied"})
			}
			id, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token is not valid"})
				}
				return err
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

func tokenFrom(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
