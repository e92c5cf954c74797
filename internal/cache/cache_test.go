package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func exerciseCounter(t *testing.T, c Counter, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Increment(ctx, "login:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if n != want {
			t.Fatalf("Increment = %d, want %d", n, want)
		}
	}
	if n, _ := c.Count(ctx, "login:1.2.3.4"); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
	if n, _ := c.Count(ctx, "login:unknown"); n != 0 {
		t.Errorf("Count of missing key = %d, want 0", n)
	}

	if err := c.Delete(ctx, "login:1.2.3.4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := c.Count(ctx, "login:1.2.3.4"); n != 0 {
		t.Errorf("Count after Delete = %d, want 0", n)
	}

	if advance == nil {
		return
	}
	c.Increment(ctx, "login:ttl", time.Minute)
	advance(30 * time.Second)
	c.Increment(ctx, "login:ttl", time.Minute) // must not extend the window
	advance(31 * time.Second)
	if n, _ := c.Count(ctx, "login:ttl"); n != 0 {
		t.Errorf("Count after window = %d, want 0", n)
	}
}

func TestMemoryCounter(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	exerciseCounter(t, m, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	c := NewCache(client, "openmobiletts-test:")
	if err := c.Ping(context.Background()); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	c.Delete(context.Background(), "login:1.2.3.4", "login:unknown")

	exerciseCounter(t, c, nil)
}
