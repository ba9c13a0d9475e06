package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

const (
	bucketPruneInterval = time.Minute
	bucketIdleAge       = 10 * time.Minute
)

// bucket is one client's token budget, refilled lazily on each check.
type bucket struct {
	level float64
	last  time.Time
}

// limiter holds per-key buckets under one lock; idle buckets are pruned in
// passing so the map does not grow with every session ever seen.
type limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rps       float64
	burst     float64
	lastPrune time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		buckets:   make(map[string]*bucket),
		rps:       cfg.RequestsPerSecond,
		burst:     float64(cfg.BurstSize),
		lastPrune: time.Now(),
	}
}

// allow spends one token from the key's bucket. When the bucket is empty it
// returns false and the seconds until a token is available again.
func (l *limiter) allow(key string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > bucketPruneInterval {
		l.prune(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{level: l.burst, last: now}
		l.buckets[key] = b
	}

	b.level += now.Sub(b.last).Seconds() * l.rps
	if b.level > l.burst {
		b.level = l.burst
	}
	b.last = now

	if b.level >= 1 {
		b.level--
		return true, 0
	}
	if l.rps <= 0 {
		return false, 1
	}
	return false, int((1-b.level)/l.rps) + 1
}

// prune drops buckets idle long enough to have refilled completely; their
// next request starts from a full bucket either way.
func (l *limiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleAge {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

// limitKey buckets authenticated traffic per presented bearer token, so one
// session cannot starve others behind the same NAT, and falls back to the
// client IP for anonymous requests (login, registration).
func limitKey(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); h != "" {
		sum := sha256.Sum256([]byte(h))
		return "tok:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + c.RealIP()
}

// RateLimit returns rate limiting middleware. A rejected request gets 429
// with a Retry-After estimate.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := newLimiter(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := l.allow(limitKey(c), time.Now())
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
