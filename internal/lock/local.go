package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process keyed mutex. It is used by single-instance
// deployments without Redis and by tests.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker. A zero wait means wait until ctx is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot), wait: wait}
}

// Lock implements Locker.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		t := time.NewTimer(l.wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s, false)
		return nil, ctx.Err()
	case <-timeout:
		l.release(key, s, false)
		return nil, ErrTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, s, true) })
	}, nil
}

func (l *LocalLocker) release(key string, s *slot, held bool) {
	if held {
		<-s.ch
	}
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}
