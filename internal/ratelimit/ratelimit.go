// Package ratelimit provides redis-backed admission control for the
// transport layer. The pipeline itself has no backpressure; limiting inbound
// requests is a transport concern.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// FixedWindow counts requests per subject in fixed windows. The counter and
// its expiry are maintained atomically in redis so multiple proxy instances
// share one budget.
type FixedWindow struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
	prefix string
	script *redis.Script
}

func NewFixedWindow(client redis.UniversalClient, limit int, window time.Duration, prefix string) (*FixedWindow, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "pixelproxy:ratelimit"
	}

	return &FixedWindow{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: prefix,
		script: redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`),
	}, nil
}

func (l *FixedWindow) Allow(ctx context.Context, subject string) (Decision, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "anonymous"
	}

	key := l.prefix + ":" + subject
	raw, err := l.script.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("run rate limit script: %w", err)
	}

	values, ok := raw.([]any)
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("invalid rate limit response")
	}
	count, ok := values[0].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("invalid rate limit count %T", values[0])
	}
	ttlMS, ok := values[1].(int64)
	if !ok {
		return Decision{}, fmt.Errorf("invalid rate limit ttl %T", values[1])
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	decision := Decision{
		Allowed:   count <= l.limit,
		Remaining: remaining,
	}
	if !decision.Allowed && ttlMS > 0 {
		decision.RetryAfter = time.Duration(ttlMS) * time.Millisecond
	}
	return decision, nil
}
