package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(30 * time.Minute)

	s := New(time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC))
	s.TicketID = "T240108-AAAA0001"
	if err := c.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, s.SessionID)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got.TicketID != "T240108-AAAA0001" {
		t.Errorf("TicketID = %q", got.TicketID)
	}

	if _, ok, _ := c.Get(ctx, "unknown"); ok {
		t.Error("unknown session should miss")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache(30 * time.Minute)
	c.now = func() time.Time { return clock }

	s := New(clock)
	if err := c.Put(ctx, s); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock = clock.Add(29 * time.Minute)
	if _, ok, _ := c.Get(ctx, s.SessionID); !ok {
		t.Fatal("session expired early")
	}

	// The Get above slid the TTL, so 29 more minutes is still inside it.
	clock = clock.Add(29 * time.Minute)
	if _, ok, _ := c.Get(ctx, s.SessionID); !ok {
		t.Fatal("sliding TTL did not refresh on Get")
	}

	clock = clock.Add(31 * time.Minute)
	if _, ok, _ := c.Get(ctx, s.SessionID); ok {
		t.Error("session survived past its TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired session still counted, len = %d", c.Len())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)

	s := New(time.Now())
	_ = c.Put(ctx, s)
	if err := c.Delete(ctx, s.SessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, s.SessionID); ok {
		t.Error("deleted session still present")
	}
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("deleting unknown session errored: %v", err)
	}
}

func TestMemoryCache_SweepOnPut(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		_ = c.Put(ctx, New(clock))
	}
	clock = clock.Add(2 * time.Minute)
	_ = c.Put(ctx, New(clock))

	if c.Len() != 1 {
		t.Errorf("len = %d, want 1 (stale sessions swept on Put)", c.Len())
	}
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	ctx := context.Background()

	if _, ok := Open(ctx, "", time.Hour).(*MemoryCache); !ok {
		t.Error("empty URL should select the memory backend")
	}
	if _, ok := Open(ctx, "::not-a-redis-url::", time.Hour).(*MemoryCache); !ok {
		t.Error("unparseable URL should fall back to memory")
	}
	if _, ok := Open(ctx, "redis://127.0.0.1:1", time.Hour).(*MemoryCache); !ok {
		t.Error("unreachable server should fall back to memory")
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC)
	s := New(now)
	if s.SessionID == "" {
		t.Error("session needs an ID")
	}
	if !s.CreatedAt.Equal(now) || !s.LastActiveAt.Equal(now) {
		t.Errorf("timestamps = %v / %v", s.CreatedAt, s.LastActiveAt)
	}
	if New(now).SessionID == s.SessionID {
		t.Error("session IDs must be unique")
	}
}
