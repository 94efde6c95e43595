package tenant

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// Cache stores organizations for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) (*domain.Organization, bool)
	Set(ctx context.Context, key string, org *domain.Organization, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// DefaultCacheSize is the default maximum number of cached organizations.
const DefaultCacheSize = 1000

type memoryCache struct {
	mu      sync.Mutex
	items   map[string]cacheItem
	maxSize int
	now     func() time.Time
}

type cacheItem struct {
	org       domain.Organization
	expiresAt time.Time
}

// NewMemoryCache builds a process-local cache. Expired entries are dropped on
// read, and the entry closest to expiry is evicted when the cache is full.
func NewMemoryCache(maxSize int) Cache {
	return newMemoryCache(maxSize, time.Now)
}

func newMemoryCache(maxSize int, now func() time.Time) *memoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &memoryCache{
		items:   make(map[string]cacheItem),
		maxSize: maxSize,
		now:     now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (*domain.Organization, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return cloneOrganization(&item.org), true
}

func (c *memoryCache) Set(_ context.Context, key string, org *domain.Organization, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictLocked()
	}
	c.items[key] = cacheItem{org: *cloneOrganization(org), expiresAt: c.now().Add(ttl)}
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *memoryCache) Close() error { return nil }

func (c *memoryCache) evictLocked() {
	var (
		victim string
		oldest time.Time
	)
	for key, item := range c.items {
		if victim == "" || item.expiresAt.Before(oldest) {
			victim, oldest = key, item.expiresAt
		}
	}
	delete(c.items, victim)
}

type noOpCache struct{}

// NewNoOpCache returns a cache that never stores anything.
func NewNoOpCache() Cache { return noOpCache{} }

func (noOpCache) Get(context.Context, string) (*domain.Organization, bool)         { return nil, false }
func (noOpCache) Set(context.Context, string, *domain.Organization, time.Duration) {}
func (noOpCache) Delete(context.Context, string)                                   {}
func (noOpCache) Close() error                                                     { return nil }

func cloneOrganization(org *domain.Organization) *domain.Organization {
	out := *org
	out.Modules = maps.Clone(org.Modules)
	return &out
}
