//go:build integration

package keylock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("connect test redis %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testPrefix() string {
	return fmt.Sprintf("test-lock-%d", time.Now().UnixNano())
}

func TestRedis_SecondLockWaitsForUnlock(t *testing.T) {
	client := testRedis(t)
	prefix := testPrefix()
	ctx := context.Background()
	first := NewRedis(client, prefix, 5*time.Second, 150*time.Millisecond)
	second := NewRedis(client, prefix, 5*time.Second, 150*time.Millisecond)

	unlock, err := first.Lock(ctx, "U1")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := second.Lock(ctx, "U1"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("second lock while held: err = %v, want ErrTimeout", err)
	}
	if u, err := second.Lock(ctx, "U2"); err != nil {
		t.Fatalf("other key: %v", err)
	} else {
		u()
	}

	unlock()
	unlock()
	u, err := second.Lock(ctx, "U1")
	if err != nil {
		t.Fatalf("second lock after unlock: %v", err)
	}
	u()
}

func TestRedis_ExpiredHolderCannotReleaseNewLease(t *testing.T) {
	client := testRedis(t)
	prefix := testPrefix()
	ctx := context.Background()
	short := NewRedis(client, prefix, 100*time.Millisecond, time.Second)
	other := NewRedis(client, prefix, 5*time.Second, time.Second)

	stale, err := short.Lock(ctx, "U1")
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	holder, err := other.Lock(ctx, "U1")
	if err != nil {
		t.Fatalf("lock after lease expiry: %v", err)
	}
	defer holder()

	stale()

	if n, err := client.Exists(ctx, prefix+":U1").Result(); err != nil || n != 1 {
		t.Fatalf("lease after stale unlock: exists=%d err=%v", n, err)
	}
	contender := NewRedis(client, prefix, 5*time.Second, 100*time.Millisecond)
	if _, err := contender.Lock(ctx, "U1"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("lock while new lease held: err = %v, want ErrTimeout", err)
	}
}

func TestRedis_CancelledContext(t *testing.T) {
	client := testRedis(t)
	prefix := testPrefix()
	l := NewRedis(client, prefix, 5*time.Second, 0)

	unlock, err := l.Lock(context.Background(), "U1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "U1"); err == nil {
		t.Fatal("lock on held key with expiring ctx should fail")
	}
}
