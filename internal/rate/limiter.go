package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is a keyed, time-windowed counter. Increment must be atomic per key
// and return the count inside the current window, including this hit.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Policy describes one fixed-window budget.
type Policy struct {
	Prefix      string
	MaxAttempts int
	Window      time.Duration
}

// Limiter applies a [Policy] on top of a [Counter].
type Limiter struct {
	counter Counter
	policy  Policy
}

// New creates a [Limiter]. A nil counter or a non-positive budget disables limiting.
func New(counter Counter, policy Policy) *Limiter {
	return &Limiter{
		counter: counter,
		policy:  policy,
	}
}

// Enabled reports whether the limiter enforces anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.counter != nil && l.policy.MaxAttempts > 0 && l.policy.Window > 0
}

// Allow records one attempt for key and returns [ErrRateLimited] once the
// window budget is exhausted. Every call counts, allowed or not.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	if !l.Enabled() || key == "" {
		return nil
	}

	count, err := l.counter.Increment(ctx, l.policy.Prefix+key, l.policy.Window)
	if err != nil {
		return err
	}
	if count > int64(l.policy.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

// incrementScript bumps the counter and starts the window on the first hit.
// A key left without a TTL is given one too, so it can never lock a client
// out for good.
var incrementScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) == -1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisCounter implements [Counter] with one atomic script per increment.
type RedisCounter struct {
	redis redis.UniversalClient
}

// NewRedisCounter creates a Redis-backed [Counter].
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{redis: client}
}

func (c *RedisCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := incrementScript.Run(ctx, c.redis, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

type memoryBucket struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter implements [Counter] in process. Suitable for a single instance.
type MemoryCounter struct {
	mu        sync.Mutex
	buckets   map[string]*memoryBucket
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryCounter creates an in-process [Counter].
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}
}

func (c *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now, window)

	b, ok := c.buckets[key]
	if !ok || !now.Before(b.expiresAt) {
		b = &memoryBucket{expiresAt: now.Add(window)}
		c.buckets[key] = b
	}
	b.count++

	return b.count, nil
}

// sweepLocked drops expired buckets at most once per window.
func (c *MemoryCounter) sweepLocked(now time.Time, window time.Duration) {
	if now.Sub(c.lastSweep) < window {
		return
	}
	c.lastSweep = now
	for key, b := range c.buckets {
		if !now.Before(b.expiresAt) {
			delete(c.buckets, key)
		}
	}
}

// Len returns the number of live buckets.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}
