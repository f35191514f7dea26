// Package gitrepo implements the Repository port on a git staging
// checkout driven through the git CLI. Sanitized copies of changed
// files are written into the staging tree, so original work-tree
// content never reaches the remote.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/logger"
)

// Ensure Repo implements the interface.
var _ driven.Repository = (*Repo)(nil)

// CommitAuthor identifies the engine in commit metadata.
const (
	CommitAuthorName  = "resync"
	CommitAuthorEmail = "resync@localhost"
)

// Repo is a git staging checkout pushing to a token-authenticated
// HTTPS remote.
type Repo struct {
	dir       string
	remoteURL string
	token     string

	// run executes a git command in dir; replaceable for tests.
	run func(ctx context.Context, args ...string) (string, error)
}

// NewRepo creates a repository adapter with its staging checkout under
// dataDir. The checkout is initialized lazily on first use.
func NewRepo(dataDir string, remote domain.RemoteConfig, token string) *Repo {
	r := &Repo{
		dir:       filepath.Join(dataDir, "staging"),
		remoteURL: fmt.Sprintf("https://x-access-token:%s@github.com/%s/%s.git", token, remote.Owner, remote.Repo),
		token:     token,
	}
	r.run = r.runGit
	return r
}

// Dir returns the staging checkout directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Init ensures the staging checkout exists and points at the remote.
func (r *Repo) Init(ctx context.Context, branch string) error {
	if _, err := os.Stat(filepath.Join(r.dir, ".git")); err == nil {
		return nil
	}

	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	steps := [][]string{
		{"init"},
		{"config", "user.name", CommitAuthorName},
		{"config", "user.email", CommitAuthorEmail},
		{"remote", "add", "origin", r.remoteURL},
		{"checkout", "-B", branch},
	}
	for _, args := range steps {
		if _, err := r.run(ctx, args...); err != nil {
			return fmt.Errorf("init staging checkout: %w", err)
		}
	}
	logger.Info("gitrepo: initialized staging checkout at %s", r.dir)
	return nil
}

// Stage writes the sanitized file contents into the staging tree and
// adds them to the git index. Removed paths are deleted from the index
// if present.
func (r *Repo) Stage(ctx context.Context, files []domain.SanitizedFile, removed []string) error {
	for _, file := range files {
		dest := filepath.Join(r.dir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
			return fmt.Errorf("staging %s: %w", file.Path, err)
		}
		if err := os.WriteFile(dest, file.Content, 0600); err != nil {
			return fmt.Errorf("staging %s: %w", file.Path, err)
		}
		if _, err := r.run(ctx, "add", "--", file.Path); err != nil {
			return fmt.Errorf("staging %s: %w", file.Path, err)
		}
	}

	for _, path := range removed {
		if _, err := r.run(ctx, "rm", "--ignore-unmatch", "--", path); err != nil {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}

	return nil
}

// Commit records the staged changes. Returns the commit hash, or an
// empty string when the staged set produced no diff.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	out, err := r.run(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") ||
			strings.Contains(out, "nothing added to commit") {
			return "", nil
		}
		return "", fmt.Errorf("commit: %w", err)
	}

	ref, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve commit: %w", err)
	}
	return strings.TrimSpace(ref), nil
}

// Push publishes the staging branch. A rejection because the remote
// diverged is reported as domain.ErrPushRejected; anything else is a
// transient failure for the caller's backoff. Never force-pushes.
func (r *Repo) Push(ctx context.Context, branch string) error {
	out, err := r.run(ctx, "push", "origin", "HEAD:"+branch)
	if err == nil {
		return nil
	}
	if isRejectedPush(out) {
		return fmt.Errorf("push %s: %w", branch, domain.ErrPushRejected)
	}
	return fmt.Errorf("push %s: %w", branch, err)
}

// FetchRebase fetches the remote branch and rebases the staging branch
// onto it. A conflicting rebase is aborted so local state is untouched.
func (r *Repo) FetchRebase(ctx context.Context, branch string) error {
	if _, err := r.run(ctx, "fetch", "origin", branch); err != nil {
		return fmt.Errorf("fetch %s: %w", branch, err)
	}
	if _, err := r.run(ctx, "rebase", "origin/"+branch); err != nil {
		if _, abortErr := r.run(ctx, "rebase", "--abort"); abortErr != nil {
			logger.Error("gitrepo: rebase abort failed: %v", abortErr)
		}
		return fmt.Errorf("rebase onto %s: %w", branch, err)
	}
	return nil
}

// runGit executes git with the given arguments in the staging checkout.
// Combined output is returned for error classification, with the token
// redacted.
func (r *Repo) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	out := r.redact(buf.String())
	if err != nil {
		return out, fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(out))
	}
	return out, nil
}

// redact strips the bearer token from git output before it can reach
// logs or error messages.
func (r *Repo) redact(s string) string {
	if r.token == "" {
		return s
	}
	return strings.ReplaceAll(s, r.token, "[REDACTED]")
}

// isRejectedPush reports whether git output describes a non-fast-forward
// rejection rather than a transport failure.
func isRejectedPush(out string) bool {
	for _, marker := range []string{
		"[rejected]",
		"non-fast-forward",
		"fetch first",
		"failed to push some refs",
	} {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}
