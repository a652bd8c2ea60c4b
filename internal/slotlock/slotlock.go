// Package slotlock serializes reservation writes that touch the same
// (restaurant, date, time) slot. Locks on different keys never contend.
package slotlock

import (
	"context"
	"sync"
	"time"

	"github.com/example/restaurant-ops/internal/internaltypes"
	"github.com/example/restaurant-ops/internal/metrics"
)

// Locker acquires an exclusive lock on key. The returned unlock func is safe
// to call more than once. When the lock cannot be taken within the locker's
// timeout the error is internaltypes.ErrBusy.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Local is an in-process keyed lock.
type Local struct {
	timeout time.Duration

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func NewLocal(timeout time.Duration) *Local {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Local{timeout: timeout, slots: make(map[string]*slot)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	start := time.Now()
	s := l.acquireRef(key)

	t := time.NewTimer(l.timeout)
	defer t.Stop()

	select {
	case s.sem <- struct{}{}:
		metrics.SlotLockWait.Observe(time.Since(start).Seconds())
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.sem
				l.releaseRef(key, s)
			})
		}, nil
	case <-t.C:
		l.releaseRef(key, s)
		return nil, internaltypes.ErrBusy
	case <-ctx.Done():
		l.releaseRef(key, s)
		return nil, ctx.Err()
	}
}

// Held reports how many keys currently have holders or waiters.
func (l *Local) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *Local) acquireRef(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) releaseRef(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
