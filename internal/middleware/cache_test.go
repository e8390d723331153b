package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/leadbook/internal/config"
	"github.com/iliyamo/leadbook/internal/model"
)

func TestOwnerListCacheBypassesAfterFailedBump(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	log, hook := test.NewNullLogger()

	asOwner := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			SetIdentity(c, model.Identity{UserID: "7"})
			return next(c)
		}
	}
	cache := NewOwnerListCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "t"}, rdb, log)
	e := echo.New()
	g := e.Group("/leads", asOwner, cache)
	g.GET("", func(c echo.Context) error { return c.JSON(http.StatusOK, echo.Map{"data": []string{}}) })
	g.POST("", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leads", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "7", hook.LastEntry().Data["user_id"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BYPASS", rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"data":[]}`))
	assert.NoError(t, err)
	status, gotHdr, body, ok := decodePayload(bs)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, `{"data":[]}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}
