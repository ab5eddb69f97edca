package cache

import (
	"context"
	"sync"
	"time"
	"x402_gateway/internal/usecase/interfaces"
)

// MemoryNonceCache is the single-process fallback used when REDIS_HOST is unset.
type MemoryNonceCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ interfaces.INonceCache = (*MemoryNonceCache)(nil)

func NewMemoryNonceCache() *MemoryNonceCache {
	return &MemoryNonceCache{
		entries: map[string]time.Time{},
		now:     time.Now,
	}
}

func (c *MemoryNonceCache) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if exp, ok := c.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	c.entries[key] = now.Add(ttl)
	if len(c.entries)%1024 == 0 {
		c.sweep(now)
	}
	return true, nil
}

func (c *MemoryNonceCache) Release(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryNonceCache) sweep(now time.Time) {
	for k, exp := range c.entries {
		if !now.Before(exp) {
			delete(c.entries, k)
		}
	}
}
