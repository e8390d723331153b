package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/leadbook/internal/config"
)

// takeToken refills the bucket at KEYS[1] for the whole intervals elapsed
// since its last refill, then tries to take one token.
//
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_ms.
// Returns {allowed (0|1), tokens left, ms until the next refill}.
var takeToken = redis.NewScript(`
local now      = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill   = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', KEYS[1], 't'))
local last   = tonumber(redis.call('HGET', KEYS[1], 'l'))
if tokens == nil or last == nil then
  tokens, last = capacity, now
end

local steps = math.floor(math.max(0, now - last) / interval)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  last = last + steps * interval
end

local allowed = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
end

redis.call('HSET', KEYS[1], 't', tokens, 'l', last)
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {allowed, tokens, math.max(0, interval - (now - last))}
`)

// maxPeekBytes bounds how much of a credential request body is read to
// find the submitted email.
const maxPeekBytes = 64 << 10

type tokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log logrus.FieldLogger
	now func() time.Time
}

// verdict is the outcome of one take.
type verdict struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

func (b *tokenBucket) take(ctx context.Context, key string) (verdict, error) {
	res, err := takeToken.Run(ctx, b.rdb, []string{key},
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		b.cfg.TTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return verdict{}, err
	}
	if len(res) != 3 {
		return verdict{}, fmt.Errorf("rate limit: unexpected script reply %v", res)
	}
	return verdict{
		allowed:    res[0] == 1,
		remaining:  res[1],
		retryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket throttles the credential endpoints with a token bucket kept
// in Redis, one bucket per key (see rateKey).  When Redis fails the request
// goes through and the failure is logged.  A disabled config or a nil
// client yields a pass-through middleware.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := &tokenBucket{cfg: cfg, rdb: rdb, log: log, now: time.Now}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			v, err := b.take(c.Request().Context(), key)
			if err != nil {
				b.log.WithError(err).WithField("key", key).Warn("rate limit check failed; allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
			if v.allowed {
				return next(c)
			}

			secs := int((v.retryAfter + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			b.log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Info("rate limited")
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":     "Too many requests, please try again later",
				"retry_after": secs,
			})
		}
	}
}

// rateKey builds "<prefix>:ip:<addr>[:route:<method path>][:email:<email>]".
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{cfg.Prefix, "ip", ip}
	if cfg.KeyStrategy == config.RateKeyIP {
		return strings.Join(parts, ":")
	}
	parts = append(parts, "route", c.Request().Method+" "+c.Path())
	if cfg.KeyStrategy == config.RateKeyIPEmail {
		if email := peekEmail(c.Request()); email != "" {
			parts = append(parts, "email", email)
		}
	}
	return strings.Join(parts, ":")
}

// peekEmail reads the "email" member of a JSON body and puts the body back
// for the handler.  It returns "" when there is none.
func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), rest), rest}
	if err != nil {
		return ""
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}
