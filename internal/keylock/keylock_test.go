package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemory_SerializesSameKey(t *testing.T) {
	l := NewMemory(0)
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "U1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
	if l.Len() != 0 {
		t.Errorf("keys left = %d", l.Len())
	}
}

func TestMemory_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewMemory(50 * time.Millisecond)
	u1, err := l.Lock(context.Background(), "U1")
	if err != nil {
		t.Fatal(err)
	}
	defer u1()
	u2, err := l.Lock(context.Background(), "U2")
	if err != nil {
		t.Fatalf("other key blocked: %v", err)
	}
	u2()
}

func TestMemory_WaitTimeout(t *testing.T) {
	l := NewMemory(20 * time.Millisecond)
	unlock, _ := l.Lock(context.Background(), "U1")

	if _, err := l.Lock(context.Background(), "U1"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "U1")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	again()
	if l.Len() != 0 {
		t.Errorf("keys left = %d", l.Len())
	}
}

func TestMemory_Canceled(t *testing.T) {
	l := NewMemory(0)
	unlock, _ := l.Lock(context.Background(), "U1")
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Lock(ctx, "U1"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
