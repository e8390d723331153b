package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/leadbook/internal/handler"    // import the handlers that implement the API
	"github.com/iliyamo/leadbook/internal/middleware" // session gate, rate limiter, list cache, request log
)

// Deps carries everything New needs to assemble the API.  RateLimit and
// ListCache may be nil, in which case the routes run without them.
type Deps struct {
	Log         *logrus.Logger
	Production  bool
	FrontendURL string
	StaticDir   string
	CookieName  string

	Authenticator middleware.Authenticator
	Auth          *handler.AuthHandler
	Leads         *handler.LeadHandler

	RateLimit echo.MiddlewareFunc
	ListCache echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// New builds the echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	if d.RateLimit == nil {
		d.RateLimit = passThrough
	}
	if d.ListCache == nil {
		d.ListCache = passThrough
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log, d.Production)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	if d.FrontendURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{d.FrontendURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}
	e.Use(echomw.BodyLimit("1M"))

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth, middleware.SessionAuth(d.Authenticator, d.CookieName), d.RateLimit)
	RegisterLeads(e, d.Leads, middleware.SessionAuth(d.Authenticator, d.CookieName), d.ListCache)
	if d.StaticDir != "" {
		RegisterStatic(e, d.StaticDir)
	}
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the liveness probe.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.Health)
}

// RegisterAuth registers the authentication routes under /api/auth.
// Register and login are rate limited; me requires a session; logout only
// clears the cookie and is open.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, session, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.GET("/me", a.Me, session)
	g.POST("/logout", a.Logout)
}

// RegisterStatic serves a built single-page app from dir.  Unknown paths
// fall back to index.html so client-side routes survive a reload; /api and
// /health are never shadowed.
func RegisterStatic(e *echo.Echo, dir string) {
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  dir,
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.HasPrefix(p, "/api/") || p == "/api" || p == "/health"
		},
	}))
}
