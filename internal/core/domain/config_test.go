package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		Remote:   RemoteConfig{Owner: "acme", Repo: "docs"},
		Token:    "tok",
		WorkTree: "/srv/docs",
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	missing := validConfig()
	missing.Token = ""
	assert.ErrorIs(t, missing.Validate(), ErrConfigInvalid)

	noRemote := validConfig()
	noRemote.Remote.Owner = ""
	assert.ErrorIs(t, noRemote.Validate(), ErrConfigInvalid)

	noTree := validConfig()
	noTree.WorkTree = ""
	assert.ErrorIs(t, noTree.Validate(), ErrConfigInvalid)
}

func TestConfigValidateProtectedBranch(t *testing.T) {
	cfg := validConfig()
	cfg.TargetBranch = "main"

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrConfigInvalid)
	assert.ErrorIs(t, err, ErrProtectedBranch)

	custom := validConfig()
	custom.ProtectedBranches = []string{"release"}
	custom.TargetBranch = "release"
	assert.ErrorIs(t, custom.Validate(), ErrProtectedBranch)
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultTargetBranch, cfg.TargetBranch)
	assert.Equal(t, DefaultProtectedBranches, cfg.ProtectedBranches)
	assert.Equal(t, DefaultSyncInterval, cfg.SyncInterval)
	assert.Equal(t, DefaultDebounceWindow, cfg.DebounceWindow)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, DefaultMaxParallel, cfg.MaxParallel)
	assert.Contains(t, cfg.Exclude, ".git")

	// Explicit settings survive.
	custom := &Config{SyncInterval: time.Minute, TargetBranch: "staging"}
	custom.ApplyDefaults()
	assert.Equal(t, time.Minute, custom.SyncInterval)
	assert.Equal(t, "staging", custom.TargetBranch)
}
