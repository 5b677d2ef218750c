package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))

	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("got %q,%v want v,true", got, ok)
	}

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestCache_CapEvictsClosestToExpiry(t *testing.T) {
	c := New(time.Minute, WithMaxEntries(2))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	now = now.Add(time.Second)
	c.Set(ctx, "b", []byte("2"))
	now = now.Add(time.Second)
	c.Set(ctx, "c", []byte("3"))

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("a should have been evicted")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatalf("c should be present")
	}

	// overwriting an existing key never evicts
	c.Set(ctx, "b", []byte("2b"))
	if got, _ := c.Get(ctx, "b"); string(got) != "2b" || c.Len() != 2 {
		t.Fatalf("got %q len %d", got, c.Len())
	}
}

func TestCache_CapSweepsExpiredFirst(t *testing.T) {
	c := New(time.Minute, WithMaxEntries(2))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))

	now = now.Add(2 * time.Minute)
	c.Set(ctx, "c", []byte("3"))

	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	s.Set(context.Background(), "k", []byte("v"))
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Fatalf("noop cache must never hit")
	}
}
