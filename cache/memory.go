package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// In process Provider. Entries are not shared between instances,
// so this is only suitable for single instance deployments and
// tests.
type MemoryProvider struct {
	c *gocache.Cache
}

func NewMemoryProvider(defaultTTL time.Duration) *MemoryProvider {
	return &MemoryProvider{
		c: gocache.New(defaultTTL, 2*defaultTTL),
	}
}

func (p *MemoryProvider) Get(ctx context.Context, key string) (string, bool) {
	v, found := p.c.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (p *MemoryProvider) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	p.c.Set(key, value, ttl)
}

// Drops all entries.
func (p *MemoryProvider) Flush() {
	p.c.Flush()
}

func (p *MemoryProvider) ItemCount() int {
	return p.c.ItemCount()
}
