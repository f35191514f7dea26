package driven

import (
	"context"

	"github.com/resync-dev/resync/internal/core/domain"
)

// StateStore persists the service status and sync session history so
// the status command works across process restarts.
type StateStore interface {
	// SaveStatus persists the current service status snapshot.
	SaveStatus(ctx context.Context, status *domain.ServiceStatus) error

	// LoadStatus returns the last persisted status.
	// Returns domain.ErrNotFound if nothing was ever persisted.
	LoadStatus(ctx context.Context) (*domain.ServiceStatus, error)

	// RecordSession appends a terminal sync session to the history.
	RecordSession(ctx context.Context, session *domain.SyncSession) error

	// LastSession returns the most recent recorded session.
	// Returns domain.ErrNotFound if the history is empty.
	LastSession(ctx context.Context) (*domain.SyncSession, error)

	// SessionHistory returns up to limit recent sessions, newest first.
	SessionHistory(ctx context.Context, limit int) ([]domain.SyncSession, error)

	// PruneHistory removes all but the most recent keep sessions.
	PruneHistory(ctx context.Context, keep int) error
}
