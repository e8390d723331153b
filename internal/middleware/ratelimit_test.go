package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/leadbook/internal/config"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/api/auth/login")
		return c
	}

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: config.RateKeyIP}
	assert.Equal(t, "rl:ip:10.0.0.1", rateKey(cfg, newCtx("")))

	cfg.KeyStrategy = config.RateKeyIPRoute
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/auth/login", rateKey(cfg, newCtx("")))

	cfg.KeyStrategy = config.RateKeyIPEmail
	body := `{"email":" Jo@X.com ","password":"secret123"}`
	c := newCtx(body)
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/auth/login:email:jo@x.com", rateKey(cfg, c))

	// the handler still sees the whole body
	rest, err := io.ReadAll(c.Request().Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(rest))

	// no email member falls back to the route key
	assert.Equal(t, "rl:ip:10.0.0.1:route:POST /api/auth/login", rateKey(cfg, newCtx(`not json`)))
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/", h,
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, quietLogger()),
		NewOwnerListCache(config.CacheConfig{Enabled: true}, nil, quietLogger()),
	)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestTokenBucketAllowsWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	log, hook := test.NewNullLogger()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, KeyStrategy: config.RateKeyIP, Prefix: "rl"}
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb, log))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Len(t, hook.AllEntries(), 3)
}
