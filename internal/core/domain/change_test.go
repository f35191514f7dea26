package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangeBatchPaths(t *testing.T) {
	batch := &ChangeBatch{
		Added:    []string{"a.md", "shared.md"},
		Modified: []string{"b.md", "shared.md"},
		Removed:  []string{"gone.md"},
	}

	paths := batch.Paths()
	assert.Equal(t, []string{"a.md", "shared.md", "b.md"}, paths)
	assert.NotContains(t, paths, "gone.md")
}

func TestChangeBatchEmpty(t *testing.T) {
	assert.True(t, (&ChangeBatch{}).Empty())
	assert.False(t, (&ChangeBatch{Removed: []string{"x"}}).Empty())
}

func TestChangeBatchMerge(t *testing.T) {
	t1 := time.Now().Add(-time.Minute)
	t2 := time.Now()

	a := &ChangeBatch{Added: []string{"a.md"}, WindowStart: t1, WindowEnd: t1}
	b := &ChangeBatch{Added: []string{"a.md", "b.md"}, Removed: []string{"gone.md"}, WindowStart: t2, WindowEnd: t2}

	a.Merge(b)
	assert.Equal(t, []string{"a.md", "b.md"}, a.Added)
	assert.Equal(t, []string{"gone.md"}, a.Removed)
	assert.Equal(t, t1, a.WindowStart)
	assert.Equal(t, t2, a.WindowEnd)
}
