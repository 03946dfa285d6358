package forex

import (
	"strings"
	"sync"
	"time"
)

// Clock is injected so cache expiry can be tested.
type Clock func() time.Time

// Cache holds rate tables keyed by base currency.
type Cache interface {
	Get(base string) (*Rates, bool)
	Put(base string, rates *Rates)
}

type cacheEntry struct {
	rates     *Rates
	fetchedAt time.Time
}

// TTLCache is a Cache whose entries expire ttl after they were stored.
type TTLCache struct {
	ttl time.Duration
	now Clock

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewTTLCache creates a TTLCache. A non-positive ttl uses DefaultTTL and a
// nil clock uses time.Now.
func NewTTLCache(ttl time.Duration, now Clock) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TTLCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the table for base if it is younger than the TTL.
func (c *TTLCache) Get(base string) (*Rates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[strings.ToUpper(base)]
	if !ok || c.now().Sub(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.rates, true
}

func (c *TTLCache) Put(base string, rates *Rates) {
	c.mu.Lock()
	c.entries[strings.ToUpper(base)] = cacheEntry{rates: rates, fetchedAt: c.now()}
	c.mu.Unlock()
}
