package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hakeemhq/clinic-agent-platform/pkg/logging"
)

// tokenBucketScript refills and consumes one token atomically. KEYS[1] holds
// a hash {tokens, ts}; ARGV = rate, burst, now (unix millis). Returns 1 when
// the request is allowed.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
  tokens = burst
  ts = now
end

local elapsed = (now - ts) / 1000.0
tokens = tokens + elapsed * rate
if tokens > burst then
  tokens = burst
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now)
redis.call('PEXPIRE', key, 600000)
return allowed
`)

// RateLimiter provides per-IP rate limiting with a token bucket kept in
// Redis, so the limit holds across multiple API replicas.
type RateLimiter struct {
	rdb    *redis.Client
	rate   float64
	burst  int
	logger *logging.Logger
}

// NewRateLimiter creates a rate limiter allowing rate requests/sec with the
// given burst size per IP.
func NewRateLimiter(rdb *redis.Client, rate float64, burst int, logger *logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	return &RateLimiter{rdb: rdb, rate: rate, burst: burst, logger: logger}
}

// Allow returns true if the request from ip is within the rate limit. Redis
// failures fail open: a broken limiter must not take the API down with it.
func (rl *RateLimiter) Allow(ctx context.Context, ip string) bool {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	res, err := tokenBucketScript.Run(ctx, rl.rdb,
		[]string{"ratelimit:" + ip},
		rl.rate, rl.burst, now,
	).Int()
	if err != nil {
		rl.logger.Warn("rate limiter unavailable", "error", err)
		return true
	}
	return res == 1
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests.
func RateLimit(rdb *redis.Client, rate float64, burst int, logger *logging.Logger) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rdb, rate, burst, logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(r.Context(), ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
