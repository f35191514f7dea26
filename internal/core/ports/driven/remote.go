package driven

import "context"

// RemoteClient retrieves raw resource content from the source-control
// host. Paths are relative to the configured base (owner/repo/ref);
// top-level and discovered resources resolve identically.
type RemoteClient interface {
	// Get fetches the content at path. Implementations return a
	// *domain.FetchError classifying the failure.
	Get(ctx context.Context, path string) ([]byte, error)

	// Validate checks that the configured credential can reach the
	// host. Used by the dry-run check command and at service startup.
	Validate(ctx context.Context) error
}
