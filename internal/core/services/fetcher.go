package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/core/ports/driving"
	"github.com/resync-dev/resync/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driving.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves single remote resources through a fallback chain:
// fresh cache, network, stale cache, registered static default. The
// chain guarantees callers get some answer whenever any prior
// knowledge exists, trading staleness for availability.
type Fetcher struct {
	cache   driven.ResourceCache
	remote  driven.RemoteClient
	ttl     time.Duration
	timeout time.Duration

	mu        sync.RWMutex
	fallbacks map[string][]byte

	// now is replaceable for tests.
	now func() time.Time
}

// NewFetcher creates a fetcher. ttl is the freshness window for cached
// resources; timeout bounds each network retrieval.
func NewFetcher(cache driven.ResourceCache, remote driven.RemoteClient, ttl, timeout time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = domain.DefaultCacheTTL
	}
	if timeout <= 0 {
		timeout = domain.DefaultFetchTimeout
	}
	return &Fetcher{
		cache:     cache,
		remote:    remote,
		ttl:       ttl,
		timeout:   timeout,
		fallbacks: make(map[string][]byte),
		now:       time.Now,
	}
}

// RegisterFallback registers a static local payload returned for uri
// when the network fails and no cached entry exists.
func (f *Fetcher) RegisterFallback(uri string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbacks[uri] = append([]byte(nil), body...)
}

// Fetch returns the resource at uri.
//
// Order: a fresh cache entry short-circuits without a network call.
// Otherwise the network is tried under the configured timeout. On
// failure a stale cache entry is returned with a warning; failing
// that, a registered static fallback; failing that, the network error
// is surfaced as a *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*domain.Resource, error) {
	if cached, err := f.cache.Get(uri); err == nil {
		logger.Debug("cache hit: %s", uri)
		return cached, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, netErr := f.remote.Get(fetchCtx, uri)
	if netErr == nil {
		resource := &domain.Resource{
			URI:         uri,
			Body:        body,
			FetchedAt:   f.now(),
			TTL:         f.ttl,
			ContentHash: domain.HashContent(body),
		}
		f.cache.Put(resource)
		return resource, nil
	}

	if stale, err := f.cache.GetStale(uri); err == nil {
		logger.Warn("serving stale copy of %s: %v", uri, netErr)
		return stale, nil
	}

	f.mu.RLock()
	fallback, ok := f.fallbacks[uri]
	f.mu.RUnlock()
	if ok {
		logger.Warn("serving static fallback for %s: %v", uri, netErr)
		body := append([]byte(nil), fallback...)
		return &domain.Resource{
			URI:         uri,
			Body:        body,
			FetchedAt:   f.now(),
			ContentHash: domain.HashContent(body),
		}, nil
	}

	return nil, classifyFetchError(uri, netErr)
}

// classifyFetchError normalises a remote failure into a FetchError.
func classifyFetchError(uri string, err error) error {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewFetchError(uri, domain.FetchTimeout, err)
	}
	return domain.NewFetchError(uri, domain.FetchNetwork, err)
}
