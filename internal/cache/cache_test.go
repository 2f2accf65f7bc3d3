package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_ExpiresEntries(t *testing.T) {
	c := New[string, int](0)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	c.Set(ctx, "gas", 30, 12*time.Second)

	if v, ok := c.Get(ctx, "gas"); !ok || v != 30 {
		t.Fatalf("expected hit with 30, got %d %v", v, ok)
	}

	now = now.Add(13 * time.Second)

	if _, ok := c.Get(ctx, "gas"); ok {
		t.Error("expected entry to be expired")
	}

	c.evictExpired()
	if c.Len() != 0 {
		t.Errorf("expected eviction to remove entry, len=%d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, string](time.Minute)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", "v", time.Minute)
	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected deleted key to miss")
	}

	// Close is idempotent.
	c.Close()
}
