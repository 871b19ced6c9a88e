package validation

import (
	"fmt"
	"testing"
	"time"
)

func TestResultCache_PutGet(t *testing.T) {
	c := newResultCache(8, time.Minute)

	if _, ok := c.get("absent"); ok {
		t.Error("empty cache returned a hit")
	}
	c.put("k1", Result{Score: 0.5})
	res, ok := c.get("k1")
	if !ok || res.Score != 0.5 {
		t.Errorf("get(k1) = %+v, %v", res, ok)
	}
}

func TestResultCache_TTLExpiry(t *testing.T) {
	clock := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(8, time.Minute)
	c.now = func() time.Time { return clock }

	c.put("k1", Result{Score: 0.5})
	clock = clock.Add(59 * time.Second)
	if _, ok := c.get("k1"); !ok {
		t.Error("entry expired before its TTL")
	}

	clock = clock.Add(2 * time.Second)
	if _, ok := c.get("k1"); ok {
		t.Error("entry survived past its TTL")
	}
	if c.len() != 0 {
		t.Errorf("expired entry left in cache, len = %d", c.len())
	}
}

func TestResultCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	c := newResultCache(8, 0)
	c.now = func() time.Time { return clock }

	c.put("k1", Result{Score: 0.5})
	clock = clock.Add(24 * 365 * time.Hour)
	if _, ok := c.get("k1"); !ok {
		t.Error("zero TTL must disable expiry")
	}
}

func TestResultCache_LRUEviction(t *testing.T) {
	c := newResultCache(2, time.Minute)

	c.put("a", Result{Score: 0.1})
	c.put("b", Result{Score: 0.2})
	// Touch a so b becomes the eviction candidate.
	if _, ok := c.get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.put("c", Result{Score: 0.3})

	if _, ok := c.get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("a should have survived the eviction")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("c should be cached")
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
}

func TestResultCache_PutExistingUpdates(t *testing.T) {
	c := newResultCache(2, time.Minute)
	c.put("k1", Result{Score: 0.1})
	c.put("k1", Result{Score: 0.9})

	res, ok := c.get("k1")
	if !ok || res.Score != 0.9 {
		t.Errorf("get after overwrite = %+v, %v", res, ok)
	}
	if c.len() != 1 {
		t.Errorf("overwrite grew the cache to %d entries", c.len())
	}
}

func TestResultCache_EvictionOnlyCostsRecomputation(t *testing.T) {
	e := newTestEngine()
	e.cache = newResultCache(1, time.Minute)

	fields := requiredFields()
	first, err := e.ValidateFields(fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Churn the one-slot cache until the original entry is long gone.
	for i := 0; i < 5; i++ {
		other := requiredFields()
		other["remarks"] = fmt.Sprintf("churn %d", i)
		if _, err := e.ValidateFields(other); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	again, err := e.ValidateFields(fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.ElapsedMS, again.ElapsedMS = 0, 0
	if first.IsValid != again.IsValid || first.Score != again.Score || len(first.Gaps) != len(again.Gaps) {
		t.Errorf("recomputed result diverged:\nfirst: %+v\nagain: %+v", first, again)
	}
}

func TestCacheKey_Properties(t *testing.T) {
	base := map[string]any{"county": "Travis", "city": "Austin"}

	t.Run("empty values are ignored", func(t *testing.T) {
		padded := map[string]any{"county": "Travis", "city": "Austin", "remarks": "   "}
		if cacheKey(base) != cacheKey(padded) {
			t.Error("blank field changed the fingerprint")
		}
	})

	t.Run("values matter", func(t *testing.T) {
		other := map[string]any{"county": "Travis", "city": "Round Rock"}
		if cacheKey(base) == cacheKey(other) {
			t.Error("different values produced the same fingerprint")
		}
	})

	t.Run("names matter", func(t *testing.T) {
		other := map[string]any{"county": "Travis", "remarks": "Austin"}
		if cacheKey(base) == cacheKey(other) {
			t.Error("same values under different names produced the same fingerprint")
		}
	})

	t.Run("dates are canonical", func(t *testing.T) {
		fromString := map[string]any{"work_start_date": "2024-03-15"}
		fromTime := map[string]any{"work_start_date": time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)}
		if cacheKey(fromString) != cacheKey(fromTime) {
			t.Error("equivalent dates produced different fingerprints")
		}
	})
}
