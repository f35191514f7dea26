package cli

import (
	"context"

	"github.com/resync-dev/resync/internal/adapters/driven/cache/memory"
	configfile "github.com/resync-dev/resync/internal/adapters/driven/config/file"
	"github.com/resync-dev/resync/internal/adapters/driven/gitrepo"
	"github.com/resync-dev/resync/internal/adapters/driven/host"
	"github.com/resync-dev/resync/internal/adapters/driven/remote/github"
	"github.com/resync-dev/resync/internal/adapters/driven/state/sqlite"
	"github.com/resync-dev/resync/internal/adapters/driven/watch"
	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/core/ports/driving"
	"github.com/resync-dev/resync/internal/core/services"
)

// engine bundles the wired components the commands act on. Building it
// performs no network calls, so commands that only read local state
// work with an invalid or missing remote configuration.
type engine struct {
	cfg        *domain.Config
	store      driven.ConfigStore
	state      *sqlite.Store
	host       driven.HostService
	remote     driven.RemoteClient
	fetcher    driving.Fetcher
	dispatcher driving.MultiFetcher
	sanitizer  *services.Sanitizer
	committer  *services.Committer
	supervisor driving.Supervisor
	repo       *gitrepo.Repo
}

// buildEngine is replaceable for tests.
var buildEngine = newEngine

func newEngine(ctx context.Context) (*engine, error) {
	store, err := configfile.NewConfigStore(flagConfigDir)
	if err != nil {
		return nil, err
	}
	cfg := configfile.LoadConfig(store)

	state, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	remote := github.NewClient(ctx, cfg.Remote, cfg.Token)
	fetcher := services.NewFetcher(memory.New(), remote, cfg.CacheTTL, cfg.FetchTimeout)
	discovery := services.NewDiscovery(cfg.Remote)
	sanitizer := services.NewSanitizer(cfg.WorkTree, cfg.SensitiveNames)
	repo := gitrepo.NewRepo(cfg.DataDir, cfg.Remote, cfg.Token)
	committer := services.NewCommitter(repo, cfg.TargetBranch, services.DefaultRetryConfig())

	return &engine{
		cfg:        cfg,
		store:      store,
		state:      state,
		host:       host.NewService(cfg.DataDir),
		remote:     remote,
		fetcher:    fetcher,
		dispatcher: services.NewDispatcher(fetcher, discovery, cfg.MaxDepth, cfg.MaxParallel),
		sanitizer:  sanitizer,
		committer:  committer,
		supervisor: services.NewSupervisor(cfg, watch.NewWatcher(cfg), sanitizer, committer, state, remote, services.NopEnhancer{}),
		repo:       repo,
	}, nil
}

func (e *engine) Close() error {
	if e.state == nil {
		return nil
	}
	return e.state.Close()
}
