package memory

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.ResourceCache = (*Cache)(nil)

// shardCount partitions the key space. Power of two for cheap masking.
const shardCount = 16

// entry pairs a resource with its expiry. Expired entries are retained
// until overwritten so the fetcher can serve stale content when the
// network is down.
type entry struct {
	resource  *domain.Resource
	expiresAt time.Time
}

// shard is one lock domain of the cache.
type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Cache is a sharded TTL cache of fetched resources.
type Cache struct {
	shards [shardCount]*shard

	// now is replaceable for tests.
	now func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	c := &Cache{now: time.Now}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return c
}

// shardFor maps a URI onto its shard.
func (c *Cache) shardFor(uri string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uri))
	return c.shards[h.Sum32()&(shardCount-1)]
}

// Get returns the cached resource for uri if present and fresh.
// Expired entries are treated as absent.
func (c *Cache) Get(uri string) (*domain.Resource, error) {
	s := c.shardFor(uri)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[uri]
	if !ok || c.now().After(e.expiresAt) {
		return nil, domain.ErrNotFound
	}
	return e.resource.Clone(), nil
}

// GetStale returns the cached resource for uri even if expired.
func (c *Cache) GetStale(uri string) (*domain.Resource, error) {
	s := c.shardFor(uri)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[uri]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.resource.Clone(), nil
}

// Put stores a resource, replacing any previous entry for its URI.
// Resources with a zero TTL are never cached.
func (c *Cache) Put(resource *domain.Resource) {
	if resource == nil || resource.TTL <= 0 {
		return
	}

	s := c.shardFor(resource.URI)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[resource.URI] = &entry{
		resource:  resource.Clone(),
		expiresAt: resource.FetchedAt.Add(resource.TTL),
	}
}

// Invalidate removes the entry for uri, including its stale copy.
func (c *Cache) Invalidate(uri string) {
	s := c.shardFor(uri)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, uri)
}
