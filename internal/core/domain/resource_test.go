package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResourceFresh(t *testing.T) {
	now := time.Now()
	resource := &Resource{FetchedAt: now.Add(-30 * time.Second), TTL: time.Minute}
	assert.True(t, resource.Fresh(now))
	assert.False(t, resource.Fresh(now.Add(time.Minute)))

	// Zero TTL is never fresh.
	uncached := &Resource{FetchedAt: now, TTL: 0}
	assert.False(t, uncached.Fresh(now))
}

func TestResourceClone(t *testing.T) {
	original := &Resource{
		URI:             "docs/a.md",
		Body:            []byte("body"),
		DiscoveredLinks: []string{"b.md"},
	}

	clone := original.Clone()
	clone.Body[0] = 'X'
	clone.DiscoveredLinks[0] = "other.md"

	assert.Equal(t, []byte("body"), original.Body)
	assert.Equal(t, []string{"b.md"}, original.DiscoveredLinks)
}

func TestHashContent(t *testing.T) {
	h1 := HashContent([]byte("same"))
	h2 := HashContent([]byte("same"))
	h3 := HashContent([]byte("different"))

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
