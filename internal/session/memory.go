package session

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the in-process session backend. Good for single-instance
// deployments and as the fallback when Redis is down.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// NewMemoryCache builds an in-memory cache with the given session TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, id string) (Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return Session{}, false, nil
	}
	now := c.now()
	if now.After(entry.expiresAt) {
		delete(c.entries, id)
		return Session{}, false, nil
	}

	entry.expiresAt = now.Add(c.ttl)
	c.entries[id] = entry
	return entry.session, true, nil
}

func (c *MemoryCache) Put(_ context.Context, s Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[s.SessionID] = memoryEntry{
		session:   s,
		expiresAt: c.now().Add(c.ttl),
	}
	c.sweepLocked()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

// Len counts live sessions.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	return len(c.entries)
}

// sweepLocked drops expired entries. Called opportunistically under the lock
// so the map cannot grow without bound on a long-lived process.
func (c *MemoryCache) sweepLocked() {
	now := c.now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}
