package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"treasury/internal/ratelimit"
)

const keyPrefix = "treasury:ratelimit:"

// slidingWindowScript keeps one sorted set member per admitted request,
// scored by its millisecond timestamp. It returns {allowed, count, oldest}.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
local allowed = 0
if count < limit then
	redis.call("ZADD", KEYS[1], now, ARGV[4])
	count = count + 1
	allowed = 1
end
if count > 0 then
	redis.call("PEXPIRE", KEYS[1], window)
end
local oldest = now
local head = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
if head[2] then
	oldest = tonumber(head[2])
end
return {allowed, count, oldest}
`)

// Store shares windows between replicas through Redis.
type Store struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Allow(ctx context.Context, key string, limit ratelimit.Limit, now time.Time) (ratelimit.Result, error) {
	vals, err := slidingWindowScript.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(), limit.Window.Milliseconds(), limit.Requests, uuid.NewString()).Int64Slice()
	if err != nil {
		return ratelimit.Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(vals) != 3 {
		return ratelimit.Result{}, fmt.Errorf("rate limit %s: unexpected reply of %d values", key, len(vals))
	}

	result := ratelimit.Result{
		Allowed: vals[0] == 1,
		Limit:   limit.Requests,
		ResetAt: time.UnixMilli(vals[2]).Add(limit.Window),
	}
	if result.Allowed {
		result.Remaining = max(limit.Requests-int(vals[1]), 0)
	}
	return result, nil
}
