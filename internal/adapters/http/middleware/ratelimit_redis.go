package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// tokenBucketScript refills and takes one token atomically.
// Returns 1 when the request is allowed, 0 otherwise.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
if intervals > 0 then
  tokens = math.min(capacity, tokens + intervals * capacity)
  last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return allowed
`)

// RedisRateLimiter is a token bucket shared by every server process through Redis.
type RedisRateLimiter struct {
	client   redis.UniversalClient
	rate     int
	interval time.Duration
	prefix   string
}

var _ Limiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter allows `rate` requests per `interval` for each key.
func NewRedisRateLimiter(client redis.UniversalClient, rate int, interval time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, rate: rate, interval: interval, prefix: "eventbook:ratelimit:"}
}

// Allow takes a token for key. A Redis failure lets the request through.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	ttl := int64((5 * rl.interval) / time.Second)
	if ttl < 60 {
		ttl = 60
	}
	allowed, err := tokenBucketScript.Run(ctx, rl.client, []string{rl.prefix + key},
		time.Now().UnixMilli(), rl.rate, rl.interval.Milliseconds(), ttl,
	).Int()
	if err != nil {
		zap.L().Warn("rate_limit_backend_error", zap.String("key", key), zap.Error(err))
		return true
	}
	if allowed != 1 {
		zap.L().Warn("rate_limit_exceeded", zap.String("key", key))
		return false
	}
	return true
}
