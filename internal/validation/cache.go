package validation

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// resultCache memoizes validation results keyed by field-set fingerprint.
// Bounded LRU with per-entry TTL; purely an optimization, so eviction or
// expiry only ever costs a recomputation.
type resultCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is most recently used
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key      string
	result   Result
	storedAt time.Time
}

func newResultCache(maxEntries int, ttl time.Duration) *resultCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &resultCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (c *resultCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return Result{}, false
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return Result{}, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return entry.result, true
}

func (c *resultCache) put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.result = r
		entry.storedAt = c.now()
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, result: r, storedAt: c.now()})
	c.entries[key] = el

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *resultCache) stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// cacheKey fingerprints the non-empty fields of a ticket. Hashing keeps keys
// fixed-size and collision-safe regardless of what callers type into fields.
func cacheKey(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name, v := range fields {
		if isEmpty(v) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s\x1f%v\x1e", name, canonicalValue(fields[name]))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalValue(v any) string {
	if t, ok := asTime(v); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%v", v)
}
