package httpserver

import (
	"sync"
	"time"
)

// PageCache keeps rendered product pages by slug until a write invalidates them or they expire.
type PageCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]pageEntry
	now     func() time.Time
}

type pageEntry struct {
	body    []byte
	expires time.Time
}

func NewPageCache(ttl time.Duration) *PageCache {
	return &PageCache{ttl: ttl, entries: map[string]pageEntry{}, now: time.Now}
}

func (c *PageCache) Get(slug string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[slug]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.body, true
}

func (c *PageCache) Put(slug string, body []byte) {
	c.mu.Lock()
	c.entries[slug] = pageEntry{body: body, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidateProduct drops the cached page of slug.
func (c *PageCache) InvalidateProduct(slug string) {
	c.mu.Lock()
	delete(c.entries, slug)
	c.mu.Unlock()
}
