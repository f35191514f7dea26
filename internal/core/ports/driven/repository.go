package driven

import (
	"context"

	"github.com/resync-dev/resync/internal/core/domain"
)

// Repository is the git working-tree port used by the sync committer.
// The adapter owns a staging checkout; sanitized file copies are
// written into it, so the original changed files never reach the
// remote.
type Repository interface {
	// Stage writes the sanitized file copies into the staging
	// checkout and adds them to the index. Removed paths are staged
	// as deletions.
	Stage(ctx context.Context, files []domain.SanitizedFile, removed []string) error

	// Commit records the staged changes and returns the commit hash.
	// Returns ("", nil) when there is nothing to commit.
	Commit(ctx context.Context, message string) (string, error)

	// Push publishes the current branch head to the target branch.
	// A diverged remote yields an error wrapping domain.ErrPushRejected;
	// anything else is treated as a transient network failure.
	Push(ctx context.Context, branch string) error

	// FetchRebase fetches the target branch and rebases local commits
	// onto it. On conflict the rebase is aborted and an error wrapping
	// domain.ErrPushRejected is returned, leaving local state untouched.
	FetchRebase(ctx context.Context, branch string) error
}
