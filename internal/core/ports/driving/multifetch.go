package driving

import (
	"context"

	"github.com/resync-dev/resync/internal/core/domain"
)

// MultiFetcher recursively fetches a root resource plus the resources
// it references, bounded by depth and parallelism. Partial success is
// a normal outcome.
type MultiFetcher interface {
	// MultiFetch fetches rootURI and its discovered references.
	// maxDepth and maxParallel fall back to configured defaults when
	// zero or negative.
	MultiFetch(ctx context.Context, rootURI string, maxDepth, maxParallel int) (*domain.MultiFetchResult, error)
}

// Fetcher retrieves a single resource through the fallback chain
// (fresh cache, network, stale cache, static default).
type Fetcher interface {
	// Fetch returns the resource at uri, or a *domain.FetchError when
	// every fallback is exhausted.
	Fetch(ctx context.Context, uri string) (*domain.Resource, error)
}
