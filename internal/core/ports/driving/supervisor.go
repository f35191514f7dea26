package driving

import (
	"context"

	"github.com/resync-dev/resync/internal/core/domain"
)

// Supervisor owns the service lifecycle state machine and supervises
// the change watcher and sync committer as a long-running process.
type Supervisor interface {
	// Run validates configuration, transitions Stopped -> Starting ->
	// Running and blocks until the context ends or Stop is called.
	Run(ctx context.Context) error

	// Stop requests a cooperative shutdown: in-flight work is
	// cancelled at its next safe checkpoint and the active sync
	// session is waited for (with a timeout).
	Stop() error

	// TriggerSync requests an on-demand sync of the given paths with
	// an optional operator-supplied description. An empty path list
	// means "everything currently changed". If a session is active the
	// request coalesces into the next session.
	TriggerSync(description string, paths []string)

	// Status returns the current state plus the last session outcome.
	Status(ctx context.Context) (*domain.ServiceStatus, error)
}

// TaskEnhancer is an optional pre-processing hook applied to a string
// before it is treated as a task description. Implementations may
// rewrite the text; the default implementation returns it unchanged.
type TaskEnhancer interface {
	Enhance(ctx context.Context, text string) (string, error)
}
