// Package keylock serializes work per key, such as one chat user's events.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned when the lock could not be taken within the wait.
var ErrTimeout = errors.New("timed out waiting for lock")

// Locker hands out exclusive per-key locks. The returned func releases the
// lock and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Memory is a keyed mutex for a single process.
type Memory struct {
	wait time.Duration

	mu   sync.Mutex
	keys map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewMemory returns a locker that waits at most wait for a key; zero waits
// until ctx is done.
func NewMemory(wait time.Duration) *Memory {
	return &Memory{wait: wait, keys: make(map[string]*slot)}
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	s := m.acquire(key)

	if m.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.wait)
		defer cancel()
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			m.release(key)
		})
	}, nil
}

func (m *Memory) acquire(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.keys[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		m.keys[key] = s
	}
	s.refs++
	return s
}

func (m *Memory) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.keys[key]
	s.refs--
	if s.refs == 0 {
		delete(m.keys, key)
	}
}

// Len reports how many keys are held or awaited.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
