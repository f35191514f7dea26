package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resync-dev/resync/internal/core/domain"
)

func newTestWatcher(t *testing.T, include []string) (*Watcher, string, <-chan domain.ChangeBatch) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0700))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0700))

	cfg := &domain.Config{
		WorkTree:       root,
		DebounceWindow: 50 * time.Millisecond,
		Include:        include,
	}
	cfg.ApplyDefaults()
	cfg.DebounceWindow = 50 * time.Millisecond

	w := NewWatcher(cfg)
	batches, err := w.Watch(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, root, batches
}

func receiveBatch(t *testing.T, batches <-chan domain.ChangeBatch) domain.ChangeBatch {
	t.Helper()
	select {
	case batch := <-batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("no change batch received")
		return domain.ChangeBatch{}
	}
}

func TestWatcherCoalescesBurstIntoOneBatch(t *testing.T) {
	_, root, batches := newTestWatcher(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("one"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "b.md"), []byte("two"), 0600))

	batch := receiveBatch(t, batches)
	assert.ElementsMatch(t, []string{"a.md", "docs/b.md"}, batch.Added)
	assert.False(t, batch.WindowEnd.Before(batch.WindowStart))

	// The burst produced exactly one batch.
	select {
	case extra := <-batches:
		t.Fatalf("unexpected second batch: %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherReportsModification(t *testing.T) {
	_, root, batches := newTestWatcher(t, nil)

	path := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0600))
	receiveBatch(t, batches)

	require.NoError(t, os.WriteFile(path, []byte("changed"), 0600))
	batch := receiveBatch(t, batches)
	assert.Contains(t, batch.Modified, "a.md")
}

func TestWatcherReportsRemoval(t *testing.T) {
	_, root, batches := newTestWatcher(t, nil)

	path := filepath.Join(root, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0600))
	receiveBatch(t, batches)

	require.NoError(t, os.Remove(path))
	batch := receiveBatch(t, batches)
	assert.Contains(t, batch.Removed, "a.md")
}

func TestWatcherIgnoresExcludedPaths(t *testing.T) {
	_, root, batches := newTestWatcher(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "index"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md.swp"), []byte("x"), 0600))

	select {
	case batch := <-batches:
		t.Fatalf("excluded paths produced a batch: %+v", batch)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherIncludeFilter(t *testing.T) {
	_, root, batches := newTestWatcher(t, []string{"*.md"})

	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kept.md"), []byte("x"), 0600))

	batch := receiveBatch(t, batches)
	assert.Equal(t, []string{"kept.md"}, batch.Added)
}

func TestWatcherPicksUpNewSubdirectories(t *testing.T) {
	_, root, batches := newTestWatcher(t, nil)

	sub := filepath.Join(root, "new")
	require.NoError(t, os.Mkdir(sub, 0700))
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.md"), []byte("x"), 0600))

	batch := receiveBatch(t, batches)
	assert.Contains(t, batch.Added, "new/c.md")
}

func TestWatcherCloseEndsStream(t *testing.T) {
	w, _, batches := newTestWatcher(t, nil)
	require.NoError(t, w.Close())

	select {
	case _, ok := <-batches:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Close")
	}
}
