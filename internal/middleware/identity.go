package middleware

// identity.go stores and retrieves the verified caller.  SessionAuth is the
// only writer; handlers and the other middleware only read.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leadbook/internal/model"
)

const identityKey = "identity"

// SetIdentity attaches id to the request context.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity placed by SessionAuth.  The boolean is
// false on routes that are not behind the session gate.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok && id.UserID != ""
}

// currentUserID labels request log lines; "anon" before a session exists.
func currentUserID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.UserID
	}
	return "anon"
}
