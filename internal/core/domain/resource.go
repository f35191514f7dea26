package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Resource is a remote document fetched from the source-control host.
// A Resource is never mutated in place; a refresh creates a new value
// that replaces the cache entry.
type Resource struct {
	// URI is the path of the resource, relative to the configured base.
	URI string

	// Body is the raw resource content.
	Body []byte

	// FetchedAt is when the resource was retrieved from the network.
	FetchedAt time.Time

	// TTL is how long the resource is considered fresh.
	// Zero means the resource is never cached.
	TTL time.Duration

	// ContentHash is the SHA-256 of Body, used for change detection.
	ContentHash string

	// DiscoveredLinks holds URIs found in Body by link discovery,
	// in order of appearance with duplicates removed.
	DiscoveredLinks []string
}

// Fresh reports whether the resource is still within its TTL at now.
// A zero TTL is never fresh.
func (r *Resource) Fresh(now time.Time) bool {
	if r.TTL <= 0 {
		return false
	}
	return now.Before(r.FetchedAt.Add(r.TTL))
}

// Clone returns a deep copy of the resource. The cache hands out
// clones so callers never hold references into cache-owned state.
func (r *Resource) Clone() *Resource {
	cp := *r
	cp.Body = append([]byte(nil), r.Body...)
	cp.DiscoveredLinks = append([]string(nil), r.DiscoveredLinks...)
	return &cp
}

// HashContent computes the hex-encoded SHA-256 of body.
func HashContent(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
