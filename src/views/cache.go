package views

import (
	"strings"
	"sync"
	"time"
)

const DefaultTTL = 30 * time.Second

type cacheEntry struct {
	value   any
	expires time.Time
}

// QueryCache holds recent reads keyed by entity type and query. A successful
// mutation drops every entry of its entity type.
type QueryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache{ttl: ttl, now: time.Now, entries: map[string]cacheEntry{}}
}

func cacheKey(entity string, key string) string {
	return entity + "|" + key
}

func (c *QueryCache) Get(entity string, key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(entity, key)
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, k)
		return nil, false
	}
	return e.value, true
}

func (c *QueryCache) Put(entity string, key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(entity, key)] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

func (c *QueryCache) Invalidate(entity string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := entity + "|"
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
