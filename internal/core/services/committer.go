package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/logger"
)

// RetryConfig controls push retry behaviour on transient network
// failures.
type RetryConfig struct {
	// MaxAttempts caps push attempts, including the first.
	MaxAttempts int

	// InitialWait is the delay before the first retry.
	InitialWait time.Duration

	// MaxWait caps the backoff delay.
	MaxWait time.Duration

	// Multiplier grows the delay between attempts.
	Multiplier float64

	// Jitter randomises each delay by +/- this fraction.
	Jitter float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

// Committer stages sanitized changes, commits them and pushes to the
// configured target branch. Exactly one sync session may be active at
// a time; callers coalesce further triggers into the next session.
type Committer struct {
	repo   driven.Repository
	branch string
	retry  RetryConfig

	mu     sync.Mutex
	active bool
}

// NewCommitter creates a committer pushing to targetBranch.
func NewCommitter(repo driven.Repository, targetBranch string, retry RetryConfig) *Committer {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Committer{repo: repo, branch: targetBranch, retry: retry}
}

// Sync runs one session: stage the sanitized file set, commit with the
// batch window in the message, push with retry. Returns the terminal
// session; the error is domain.ErrSyncInProgress when a session is
// already active (the caller should coalesce, not wait).
func (c *Committer) Sync(ctx context.Context, batch *domain.ChangeBatch, files []domain.SanitizedFile, description string) (*domain.SyncSession, error) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil, domain.ErrSyncInProgress
	}
	c.active = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}()

	session := &domain.SyncSession{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}
	for _, f := range files {
		session.Files = append(session.Files, f.Path)
	}
	defer func() { session.EndedAt = time.Now() }()

	if len(files) == 0 && len(batch.Removed) == 0 {
		logger.Debug("sync %s: nothing to stage", session.ID)
		session.PushResult = domain.PushSuccess
		return session, nil
	}

	if err := c.repo.Stage(ctx, files, batch.Removed); err != nil {
		session.PushResult = domain.PushNetworkError
		session.Error = fmt.Sprintf("stage: %v", err)
		return session, nil
	}

	ref, err := c.repo.Commit(ctx, commitMessage(batch, description))
	if err != nil {
		session.PushResult = domain.PushNetworkError
		session.Error = fmt.Sprintf("commit: %v", err)
		return session, nil
	}
	if ref == "" {
		// Staged set collapsed to no diff.
		session.PushResult = domain.PushSuccess
		return session, nil
	}
	session.CommitRef = ref

	c.push(ctx, session)
	return session, nil
}

// push attempts the publish with one rebase retry on rejection and
// exponential backoff on transient network failure. Cancellation is
// observed between attempts, never mid-push.
func (c *Committer) push(ctx context.Context, session *domain.SyncSession) {
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		session.AttemptCount = attempt

		err := c.repo.Push(ctx, c.branch)
		if err == nil {
			session.PushResult = domain.PushSuccess
			logger.Info("sync %s: pushed %s to %s", session.ID, session.CommitRef, c.branch)
			return
		}

		if errors.Is(err, domain.ErrPushRejected) {
			// Remote diverged: one fetch-rebase-retry, then give up
			// with local state untouched. No forced pushes.
			logger.Warn("sync %s: push rejected, rebasing onto %s", session.ID, c.branch)
			if rebaseErr := c.repo.FetchRebase(ctx, c.branch); rebaseErr != nil {
				session.PushResult = domain.PushRejected
				session.Error = fmt.Sprintf("rebase: %v", rebaseErr)
				return
			}
			if retryErr := c.repo.Push(ctx, c.branch); retryErr != nil {
				session.AttemptCount++
				session.PushResult = domain.PushRejected
				session.Error = fmt.Sprintf("push after rebase: %v", retryErr)
				return
			}
			session.AttemptCount++
			session.PushResult = domain.PushSuccess
			return
		}

		// Transient network failure.
		session.Error = err.Error()
		if attempt == c.retry.MaxAttempts {
			break
		}
		wait := c.backoff(attempt)
		logger.Warn("sync %s: push attempt %d failed (%v), retrying in %s", session.ID, attempt, err, wait)
		select {
		case <-ctx.Done():
			session.PushResult = domain.PushNetworkError
			session.Error = ctx.Err().Error()
			return
		case <-time.After(wait):
		}
	}

	session.PushResult = domain.PushNetworkError
}

// backoff computes the delay before the retry following attempt.
func (c *Committer) backoff(attempt int) time.Duration {
	wait := float64(c.retry.InitialWait) * math.Pow(c.retry.Multiplier, float64(attempt-1))
	if wait > float64(c.retry.MaxWait) {
		wait = float64(c.retry.MaxWait)
	}
	if c.retry.Jitter > 0 {
		wait += wait * c.retry.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(wait)
}

// commitMessage references the change batch's time window, prefixed by
// the operator description when one was supplied.
func commitMessage(batch *domain.ChangeBatch, description string) string {
	subject := "resync: sync local changes"
	if description != "" {
		subject = "resync: " + description
	}
	if batch.WindowStart.IsZero() {
		return subject
	}
	return fmt.Sprintf("%s\n\nChange window: %s - %s",
		subject,
		batch.WindowStart.UTC().Format(time.RFC3339),
		batch.WindowEnd.UTC().Format(time.RFC3339))
}
