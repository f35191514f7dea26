package file

import (
	"os"
	"path/filepath"
	"time"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/logger"
)

// EnvToken is the environment variable holding the bearer credential.
// It takes precedence over the config file so the token can be kept
// out of files entirely.
const EnvToken = "RESYNC_TOKEN"

// LoadConfig assembles the engine configuration from the store and the
// environment, then applies defaults. Validation is the caller's job;
// the loader never fails on missing values.
func LoadConfig(store driven.ConfigStore) *domain.Config {
	cfg := &domain.Config{
		Remote: domain.RemoteConfig{
			Owner: store.GetString("remote.owner"),
			Repo:  store.GetString("remote.repo"),
			Ref:   store.GetString("remote.ref"),
		},
		Token:             os.Getenv(EnvToken),
		WorkTree:          store.GetString("worktree"),
		TargetBranch:      store.GetString("target_branch"),
		ProtectedBranches: store.GetStringSlice("protected_branches"),
		SyncInterval:      duration(store, "sync.interval"),
		DebounceWindow:    duration(store, "sync.debounce_window"),
		Include:           store.GetStringSlice("watch.include"),
		Exclude:           store.GetStringSlice("watch.exclude"),
		CacheTTL:          duration(store, "fetch.cache_ttl"),
		FetchTimeout:      duration(store, "fetch.timeout"),
		MaxDepth:          store.GetInt("fetch.max_depth"),
		MaxParallel:       store.GetInt("fetch.max_parallel"),
		SensitiveNames:    store.GetStringSlice("sanitize.sensitive_names"),
		DataDir:           store.GetString("data_dir"),
	}

	if cfg.Token == "" {
		cfg.Token = store.GetString("token")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(store.Path())
	}

	cfg.ApplyDefaults()
	return cfg
}

// duration parses a duration-valued key ("30s", "5m"). Malformed
// values are logged and treated as unset.
func duration(store driven.ConfigStore, key string) time.Duration {
	raw := store.GetString(key)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("config: invalid duration for %s: %q", key, raw)
		return 0
	}
	return d
}
