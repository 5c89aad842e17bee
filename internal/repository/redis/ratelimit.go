// Package redis holds the Redis-backed stores.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AkshatJain-webdev/Natours/pkg/middleware"
)

const keyPrefix = "ratelimit:"

// The window starts with the first hit and is never extended.
var incrScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// WindowStore counts hits per key in fixed windows.
type WindowStore struct {
	client redis.Scripter
}

// NewWindowStore creates a new Redis-backed window store.
func NewWindowStore(client redis.Scripter) *WindowStore {
	return &WindowStore{client: client}
}

// Incr records one hit on key and returns the hits so far in the current
// window together with the time left in it.
func (s *WindowStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrScript.Run(ctx, s.client, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("redis incr window: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("redis incr window: unexpected reply %v", res)
	}
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return res[0], ttl, nil
}

// WindowLimiter allows max hits per key in each window. It implements
// middleware.Limiter so instances share one quota per client.
type WindowLimiter struct {
	store  *WindowStore
	max    int
	window time.Duration
	now    func() time.Time
}

// NewWindowLimiter creates a limiter over store.
func NewWindowLimiter(store *WindowStore, max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{store: store, max: max, window: window, now: time.Now}
}

// Allow implements middleware.Limiter.
func (l *WindowLimiter) Allow(ctx context.Context, key string) (middleware.Decision, error) {
	n, ttl, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return middleware.Decision{}, err
	}
	return middleware.Decision{
		Allowed:   n <= int64(l.max),
		Limit:     l.max,
		Remaining: l.max - int(n),
		ResetAt:   l.now().Add(ttl),
	}, nil
}
