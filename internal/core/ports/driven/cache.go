package driven

import "github.com/resync-dev/resync/internal/core/domain"

// ResourceCache stores fetched resources with TTL-based freshness.
//
// Get treats expired entries as absent, but implementations retain
// them until overwritten so the fetcher can fall back to stale content
// when the network is unavailable (stale-while-revalidate).
//
// Implementations are safe for concurrent use and must not serialise
// operations on unrelated keys behind a single lock. Returned
// resources are copies; callers never hold references into
// cache-owned state.
type ResourceCache interface {
	// Get returns the cached resource for uri if present and fresh.
	// Returns domain.ErrNotFound if absent or expired.
	Get(uri string) (*domain.Resource, error)

	// GetStale returns the cached resource for uri even if expired.
	// Returns domain.ErrNotFound only if no entry was ever retained.
	GetStale(uri string) (*domain.Resource, error)

	// Put stores a resource, replacing any previous entry for its URI.
	// Resources with a zero TTL are not stored.
	Put(resource *domain.Resource)

	// Invalidate removes the entry for uri, including its stale copy.
	Invalidate(uri string)
}
