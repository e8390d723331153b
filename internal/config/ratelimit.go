package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rate-limit key strategies.  The limiter sits in front of register and
// login, before any session exists, so only request-level facts can key it.
const (
	RateKeyIP      = "ip"       // one bucket per client address
	RateKeyIPRoute = "ip_route" // per address and endpoint
	RateKeyIPEmail = "ip_email" // per address, endpoint and submitted email
)

// RateLimitConfig drives the Redis token bucket placed in front of the
// credential endpoints (login and register).
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // burst size
	RefillTokens   int           // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // one of the RateKey* constants
	Prefix         string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Out-of-range values are
// clamped and an unknown key strategy falls back to ip_route.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", RateKeyIPRoute)),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	switch cfg.KeyStrategy {
	case RateKeyIP, RateKeyIPRoute, RateKeyIPEmail:
	default:
		cfg.KeyStrategy = RateKeyIPRoute
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// a bucket must outlive the time it takes to refill completely
	if full := time.Duration(cfg.Capacity/cfg.RefillTokens+1) * cfg.RefillInterval; cfg.TTL < full {
		cfg.TTL = full
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
		return v
	}
	return d
}
