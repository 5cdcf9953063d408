package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the counter only while it is under the limit and
// returns {allowed, remaining, ttl_seconds}.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		current = 0
	else
		current = tonumber(current)
	end

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	end
	return {0, 0, ttl}
`)

// Redis shares the window across every API instance.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	fullKey := fmt.Sprintf("ratelimit:%s:%s", r.prefix, key)

	windowSecs := int(r.window.Seconds())
	if windowSecs < 1 {
		windowSecs = 1
	}

	res, err := allowScript.Run(ctx, r.client, []string{fullKey}, r.limit, windowSecs).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) < 3 {
		return Decision{}, fmt.Errorf("unexpected rate limit result: %v", res)
	}

	d := Decision{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		Limit:     r.limit,
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration(res[2]) * time.Second
	}

	return d, nil
}
