package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig sets the per-client request budget. One limit applies to
// every client; the key is the caller's IP prefixed with the tenant when a
// session carries one, so a noisy hospital cannot starve another behind the
// same proxy.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200}
}

// bucket is a token bucket refilled lazily on each check.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// limiter owns the per-key buckets. now is swappable for tests.
type limiter struct {
	cfg     RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (l *limiter) bucketFor(key string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.BurstSize), last: l.now()}
		l.buckets[key] = b
	}
	return b
}

// take spends one token for key. When the bucket is empty it returns false
// together with the whole seconds to wait for the next token.
func (l *limiter) take(key string) (ok bool, retryAfter int) {
	b := l.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	b.tokens = math.Min(
		float64(l.cfg.BurstSize),
		b.tokens+now.Sub(b.last).Seconds()*l.cfg.RequestsPerSecond,
	)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if l.cfg.RequestsPerSecond <= 0 {
		return false, 1
	}
	return false, int((1-b.tokens)/l.cfg.RequestsPerSecond) + 1
}

// RateLimit rejects requests over the configured budget with a 429 and a
// Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := newLimiter(cfg)
	limitHeader := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if tenant, ok := c.Get("session_tenant_id").(string); ok && tenant != "" {
				key = tenant + ":" + key
			}

			c.Response().Header().Set("X-RateLimit-Limit", limitHeader)
			if ok, retryAfter := l.take(key); !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
