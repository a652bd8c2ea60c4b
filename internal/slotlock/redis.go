package slotlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/metrics"
)

// release only if we still own the key
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process pointing at the same Redis.
// Each lock expires after ttl so a crashed holder cannot wedge a slot.
type Redis struct {
	client  redis.UniversalClient
	timeout time.Duration
	ttl     time.Duration
	retry   time.Duration
	prefix  string
}

func NewRedis(client redis.UniversalClient, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Redis{
		client:  client,
		timeout: timeout,
		ttl:     10 * time.Second,
		retry:   25 * time.Millisecond,
		prefix:  "restops:slotlock:",
	}
}

func (r *Redis) Key(key string) string { return r.prefix + key }

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	k := r.Key(key)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	t := time.NewTicker(r.retry)
	defer t.Stop()
	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("slotlock: redis setnx: %w", err)
		}
		if ok {
			metrics.SlotLockWait.Observe(time.Since(start).Seconds())
			var once sync.Once
			return func() {
				once.Do(func() {
					uctx, ucancel := context.WithTimeout(context.Background(), time.Second)
					defer ucancel()
					_ = unlockScript.Run(uctx, r.client, []string{k}, token).Err()
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, internaltypes.ErrBusy
			}
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
