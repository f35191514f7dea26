package driven

import (
	"context"

	"github.com/resync-dev/resync/internal/core/domain"
)

// ChangeWatcher observes the local working tree and emits debounced
// change batches. The stream is infinite until the context is
// cancelled or Close is called; a watcher may be restarted by calling
// Watch again after Close.
type ChangeWatcher interface {
	// Watch starts observing and returns the batch stream. The
	// channel is closed when the context ends or Close is called.
	Watch(ctx context.Context) (<-chan domain.ChangeBatch, error)

	// Close stops the watcher and releases filesystem resources.
	Close() error
}
