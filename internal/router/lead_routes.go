package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leadbook/internal/handler"
)

// RegisterLeads registers the lead CRUD endpoints under /api/leads.  All
// routes require a valid session; the list cache wraps the whole group so
// that writes can invalidate the caller's cached pages.
func RegisterLeads(e *echo.Echo, l *handler.LeadHandler, session, cache echo.MiddlewareFunc) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group("/api/leads", session, cache)

	g.POST("", l.Create)
	g.GET("", l.List)
	g.GET("/:id", l.Get)
	g.PUT("/:id", l.Update)
	g.DELETE("/:id", l.Delete)
}
