package domain

import (
	"fmt"
	"time"
)

// RemoteConfig addresses the source-control host. Resources are
// resolved as owner/repo/ref plus a relative path, the same way for
// top-level and discovered fetches.
type RemoteConfig struct {
	// Owner is the repository owner or organisation.
	Owner string

	// Repo is the repository name.
	Repo string

	// Ref is the branch or tag resources are fetched from.
	// Empty means the repository default branch.
	Ref string
}

// Config is the engine configuration, constructed once at startup and
// passed into every component constructor. No component reads ambient
// global state.
type Config struct {
	// Remote addresses the resource host.
	Remote RemoteConfig

	// Token is the bearer credential consumed by the resource fetcher
	// and the sync committer. Absence is a startup-time fatal error.
	Token string

	// WorkTree is the local directory tree watched for changes and
	// synchronized back to the remote.
	WorkTree string

	// TargetBranch is the only valid push destination. It must not be
	// a protected branch.
	TargetBranch string

	// ProtectedBranches are branches that may never be pushed to.
	ProtectedBranches []string

	// SyncInterval is the periodic sync cadence.
	SyncInterval time.Duration

	// DebounceWindow coalesces filesystem event bursts into batches.
	DebounceWindow time.Duration

	// Include are glob patterns for paths the watcher reports.
	// Empty means everything not excluded.
	Include []string

	// Exclude are glob patterns filtered out before coalescing.
	Exclude []string

	// CacheTTL is the default freshness window for fetched resources.
	CacheTTL time.Duration

	// FetchTimeout bounds a single network retrieval.
	FetchTimeout time.Duration

	// MaxDepth bounds recursive link discovery.
	MaxDepth int

	// MaxParallel is the multi-fetch worker pool size.
	MaxParallel int

	// SensitiveNames are extra file-name patterns the sanitizer blocks,
	// in addition to its built-in list.
	SensitiveNames []string

	// DataDir is where engine state (status database, PID file) lives.
	DataDir string
}

// Configuration defaults.
const (
	DefaultSyncInterval   = 5 * time.Minute
	DefaultDebounceWindow = 2 * time.Second
	DefaultCacheTTL       = 5 * time.Minute
	DefaultFetchTimeout   = 5 * time.Second
	DefaultTargetBranch   = "resync-staging"
)

// DefaultProtectedBranches are never valid push targets.
var DefaultProtectedBranches = []string{"main", "master", "production"}

// DefaultExcludes keep version-control internals, build caches and
// editor temp files out of the change stream.
var DefaultExcludes = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor", "target", "dist", "build",
	"*.swp", "*.swx", "*~", ".#*", "#*#", "*.tmp", ".DS_Store",
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.TargetBranch == "" {
		c.TargetBranch = DefaultTargetBranch
	}
	if len(c.ProtectedBranches) == 0 {
		c.ProtectedBranches = append([]string(nil), DefaultProtectedBranches...)
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = DefaultMaxParallel
	}
	if len(c.Exclude) == 0 {
		c.Exclude = append([]string(nil), DefaultExcludes...)
	}
}

// Validate checks the configuration for startup-time fatal problems.
// Every failure wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: missing credential token", ErrConfigInvalid)
	}
	if c.Remote.Owner == "" || c.Remote.Repo == "" {
		return fmt.Errorf("%w: remote owner and repo are required", ErrConfigInvalid)
	}
	if c.WorkTree == "" {
		return fmt.Errorf("%w: work tree directory is required", ErrConfigInvalid)
	}
	if c.TargetBranch == "" {
		return fmt.Errorf("%w: target branch is required", ErrConfigInvalid)
	}
	for _, protected := range c.ProtectedBranches {
		if c.TargetBranch == protected {
			return fmt.Errorf("%w: %q (%w)", ErrConfigInvalid, c.TargetBranch, ErrProtectedBranch)
		}
	}
	return nil
}
