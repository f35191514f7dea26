package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resync-dev/resync/internal/adapters/driven/cache/memory"
	"github.com/resync-dev/resync/internal/core/domain"
)

// stubRemote is a scriptable RemoteClient for fetcher tests.
type stubRemote struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     map[string]int
	delay     time.Duration
}

func newStubRemote() *stubRemote {
	return &stubRemote{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (r *stubRemote) Get(ctx context.Context, path string) ([]byte, error) {
	r.mu.Lock()
	r.calls[path]++
	body, err, delay := r.responses[path], r.errs[path], r.delay
	r.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (r *stubRemote) Validate(ctx context.Context) error { return nil }

func (r *stubRemote) callCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[path]
}

func TestFetcherNetworkSuccessPopulatesCache(t *testing.T) {
	remote := newStubRemote()
	remote.responses["docs/guide.md"] = []byte("# Guide")
	cache := memory.New()
	fetcher := NewFetcher(cache, remote, time.Minute, time.Second)

	resource, err := fetcher.Fetch(context.Background(), "docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, "docs/guide.md", resource.URI)
	assert.Equal(t, []byte("# Guide"), resource.Body)
	assert.Equal(t, domain.HashContent([]byte("# Guide")), resource.ContentHash)

	// Second fetch is served from cache, no new network call.
	again, err := fetcher.Fetch(context.Background(), "docs/guide.md")
	require.NoError(t, err)
	assert.Equal(t, resource.Body, again.Body)
	assert.Equal(t, 1, remote.callCount("docs/guide.md"))
}

func TestFetcherServesStaleOnNetworkFailure(t *testing.T) {
	remote := newStubRemote()
	remote.responses["readme.md"] = []byte("v1")
	cache := memory.New()
	fetcher := NewFetcher(cache, remote, 50*time.Millisecond, time.Second)

	_, err := fetcher.Fetch(context.Background(), "readme.md")
	require.NoError(t, err)

	// Entry expires, then the network starts failing.
	remote.mu.Lock()
	remote.errs["readme.md"] = errors.New("connection refused")
	remote.mu.Unlock()
	time.Sleep(60 * time.Millisecond)

	resource, err := fetcher.Fetch(context.Background(), "readme.md")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), resource.Body)
	assert.Equal(t, 2, remote.callCount("readme.md"))
}

func TestFetcherStaticFallback(t *testing.T) {
	remote := newStubRemote()
	remote.errs["config.toml"] = errors.New("network down")
	fetcher := NewFetcher(memory.New(), remote, time.Minute, time.Second)
	fetcher.RegisterFallback("config.toml", []byte("default = true"))

	resource, err := fetcher.Fetch(context.Background(), "config.toml")
	require.NoError(t, err)
	assert.Equal(t, []byte("default = true"), resource.Body)
}

func TestFetcherExhaustedChainReturnsFetchError(t *testing.T) {
	remote := newStubRemote()
	remote.errs["missing.md"] = domain.NewFetchError("missing.md", domain.FetchNotFound, errors.New("404"))
	fetcher := NewFetcher(memory.New(), remote, time.Minute, time.Second)

	_, err := fetcher.Fetch(context.Background(), "missing.md")
	require.Error(t, err)
	assert.True(t, domain.IsFetchNotFound(err))
}

func TestFetcherTimeoutClassified(t *testing.T) {
	remote := newStubRemote()
	remote.errs["slow.md"] = errors.New("unreachable")
	remote.delay = 200 * time.Millisecond
	fetcher := NewFetcher(memory.New(), remote, time.Minute, 20*time.Millisecond)

	_, err := fetcher.Fetch(context.Background(), "slow.md")
	require.Error(t, err)
	assert.True(t, domain.IsFetchTimeout(err))
}

func TestFetcherNetworkErrorClassified(t *testing.T) {
	remote := newStubRemote()
	remote.errs["down.md"] = errors.New("connection reset")
	fetcher := NewFetcher(memory.New(), remote, time.Minute, time.Second)

	_, err := fetcher.Fetch(context.Background(), "down.md")
	require.Error(t, err)
	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, domain.FetchNetwork, fe.Kind)
	assert.Equal(t, "down.md", fe.URI)
}
