//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/leadbook/internal/config"
	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/testhelpers"
)

func TestOwnerListCache_Redis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: testhelpers.StartRedis(t)})
	t.Cleanup(func() { _ = rdb.Close() })

	var hits atomic.Int32
	e := echo.New()
	identify := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetIdentity(c, model.Identity{UserID: c.Request().Header.Get("X-User")})
			return next(c)
		}
	}
	g := e.Group("/api/leads", identify, NewOwnerListCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "t"}, rdb, logrus.New()))
	g.GET("", func(c echo.Context) error {
		n := hits.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"n": n, "user": c.Request().Header.Get("X-User")})
	})
	g.POST("", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	do := func(method, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/leads?page=1", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	first := do(http.MethodGet, "1")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do(http.MethodGet, "1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// another owner never sees owner 1's page
	other := do(http.MethodGet, "2")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Contains(t, other.Body.String(), `"user":"2"`)

	// a write invalidates the owner's pages
	require.Equal(t, http.StatusCreated, do(http.MethodPost, "1").Code)
	third := do(http.MethodGet, "1")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, int32(3), hits.Load())

	// a failed generation bump keeps the owner off the cache until a bump succeeds
	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, "t:gen:1", "not-a-number", 0).Err())
	require.Equal(t, http.StatusCreated, do(http.MethodPost, "1").Code)
	assert.Equal(t, "BYPASS", do(http.MethodGet, "1").Header().Get("X-Cache"))
	assert.Equal(t, int32(4), hits.Load())

	require.NoError(t, rdb.Set(ctx, "t:gen:1", "5", 0).Err())
	assert.Equal(t, "MISS", do(http.MethodGet, "1").Header().Get("X-Cache"))
	assert.Equal(t, "HIT", do(http.MethodGet, "1").Header().Get("X-Cache"))
	assert.Equal(t, int32(5), hits.Load())
}
