package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resync-dev/resync/internal/core/domain"
)

func TestLoadConfig_FromStore(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("remote.owner", "acme"))
	require.NoError(t, store.Set("remote.repo", "docs"))
	require.NoError(t, store.Set("remote.ref", "main"))
	require.NoError(t, store.Set("worktree", "/srv/docs"))
	require.NoError(t, store.Set("token", "file-token"))
	require.NoError(t, store.Set("sync.interval", "2m"))
	require.NoError(t, store.Set("fetch.max_depth", 3))
	t.Setenv(EnvToken, "")

	cfg := LoadConfig(store)

	assert.Equal(t, "acme", cfg.Remote.Owner)
	assert.Equal(t, "docs", cfg.Remote.Repo)
	assert.Equal(t, "main", cfg.Remote.Ref)
	assert.Equal(t, "/srv/docs", cfg.WorkTree)
	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, 2*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 3, cfg.MaxDepth)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvTokenWins(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("token", "file-token"))
	t.Setenv(EnvToken, "env-token")

	cfg := LoadConfig(store)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	t.Setenv(EnvToken, "")

	cfg := LoadConfig(store)

	assert.Equal(t, domain.DefaultTargetBranch, cfg.TargetBranch)
	assert.Equal(t, domain.DefaultSyncInterval, cfg.SyncInterval)
	assert.Equal(t, domain.DefaultProtectedBranches, cfg.ProtectedBranches)
	assert.Equal(t, domain.DefaultMaxDepth, cfg.MaxDepth)
	assert.NotEmpty(t, cfg.Exclude)
	// DataDir defaults next to the config file.
	assert.NotEmpty(t, cfg.DataDir)

	// Missing token makes the config invalid, which is fatal at startup.
	assert.ErrorIs(t, cfg.Validate(), domain.ErrConfigInvalid)
}

func TestLoadConfig_MalformedDurationIgnored(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("sync.interval", "soon"))
	t.Setenv(EnvToken, "")

	cfg := LoadConfig(store)
	assert.Equal(t, domain.DefaultSyncInterval, cfg.SyncInterval)
}
