package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/edupilot/edupilot/pkg/apperrors"
	"github.com/edupilot/edupilot/pkg/httputil"
	"github.com/edupilot/edupilot/pkg/observability"
)

const rateLimitPrefix = "rate_limit:"

// RateLimiter is a Redis-backed fixed-window counter keyed by client IP and
// request path. Counters are shared across instances, so limits hold for the
// whole deployment.
type RateLimiter struct {
	kv        *redis.Client
	kvTimeout time.Duration
	logger    *observability.Logger
}

// NewRateLimiter creates a limiter. kvTimeout bounds each Redis round trip.
func NewRateLimiter(kv *redis.Client, kvTimeout time.Duration, logger *observability.Logger) *RateLimiter {
	if kvTimeout <= 0 {
		kvTimeout = 500 * time.Millisecond
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &RateLimiter{kv: kv, kvTimeout: kvTimeout, logger: logger}
}

// allow increments the window counter and reports whether the request is
// within the limit, plus the seconds until the window resets. Redis failures
// fail open so an unavailable counter never blocks traffic.
func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int) {
	ctx, cancel := context.WithTimeout(ctx, rl.kvTimeout)
	defer cancel()

	count, err := rl.kv.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.WithError(err).WithField("key", key).Warn("rate limit counter unavailable, allowing request")
		return true, 0
	}
	if count == 1 {
		if err := rl.kv.Expire(ctx, key, window).Err(); err != nil {
			rl.logger.WithError(err).WithField("key", key).Warn("rate limit expiry not set")
		}
	}
	if count <= int64(limit) {
		return true, 0
	}

	retryAfter := int(window.Seconds())
	if ttl, err := rl.kv.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		retryAfter = int(ttl.Seconds() + 0.5)
	}
	return false, retryAfter
}

// Limit wraps a handler with a per-IP, per-path fixed window of limit
// requests every window. Requests over the limit get a 429 with Retry-After
// set to the remaining window.
func (rl *RateLimiter) Limit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitPrefix + httputil.ClientIP(r) + ":" + r.URL.Path

			allowed, retryAfter := rl.allow(r.Context(), key, limit, window)
			if !allowed {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				httputil.WriteAppError(w, r, apperrors.New(apperrors.KindRateLimited))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
