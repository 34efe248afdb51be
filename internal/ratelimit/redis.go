package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/salesdesk/internal/model"
)

const defaultRedisPrefix = "salesdesk:rl:"

var errUnexpectedReply = errors.New("unexpected redis response")

var _ model.Limiter = (*RedisLimiter)(nil)

var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = redis.call("INCR", key)
if current == 1 then
  redis.call("PEXPIRE", key, window_ms)
end

local ttl = redis.call("PTTL", key)
if ttl < 0 then
  ttl = window_ms
end

if current > limit then
  return {0, ttl}
end
return {1, ttl}
`)

var exceededScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local ttl = redis.call("PTTL", KEYS[1])
if current < tonumber(ARGV[1]) or ttl == -2 then
  return {0, 0}
end
if ttl < 0 then
  ttl = 0
end
return {1, ttl}
`)

// RedisLimiter is a fixed-window limiter shared by every replica talking to
// the same Redis.
type RedisLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow ignores now; the window is kept by the key's expiry in Redis.
func (l *RedisLimiter) Allow(ctx context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	windowMS := l.window.Milliseconds()
	if windowMS <= 0 {
		return false, 0, fmt.Errorf("invalid rate limit window %s", l.window)
	}

	flag, ttl, err := l.run(ctx, rateLimitScript, key, l.limit, windowMS)
	if err != nil {
		return false, 0, err
	}
	if flag == 1 {
		return true, 0, nil
	}
	return false, ttl, nil
}

// Exceeded reads the counter without incrementing it.
func (l *RedisLimiter) Exceeded(ctx context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	flag, ttl, err := l.run(ctx, exceededScript, key, l.limit)
	if err != nil {
		return false, 0, err
	}
	return flag == 1, ttl, nil
}

// run executes a script that replies {flag, ttl_ms}.
func (l *RedisLimiter) run(ctx context.Context, script *redis.Script, key string, args ...any) (int64, time.Duration, error) {
	res, err := script.Run(ctx, l.client, []string{l.prefix + key}, args...).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	vals, ok := res.([]any)
	if !ok || len(vals) != 2 {
		return 0, 0, errUnexpectedReply
	}
	flag, ok := vals[0].(int64)
	if !ok {
		return 0, 0, errUnexpectedReply
	}
	ttlMS, ok := vals[1].(int64)
	if !ok {
		return 0, 0, errUnexpectedReply
	}
	return flag, max(time.Duration(ttlMS)*time.Millisecond, 0), nil
}
