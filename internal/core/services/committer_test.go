package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resync-dev/resync/internal/core/domain"
)

// mockRepo is a scripted Repository for committer tests.
type mockRepo struct {
	mu sync.Mutex

	stageErr  error
	commitRef string
	commitErr error
	pushErrs  []error // consumed in order; nil-padded after exhaustion
	rebaseErr error
	pushBlock chan struct{} // when set, Push waits for close

	stageCalls  int
	commitMsgs  []string
	pushCalls   int
	rebaseCalls int
}

func (r *mockRepo) Stage(ctx context.Context, files []domain.SanitizedFile, removed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stageCalls++
	return r.stageErr
}

func (r *mockRepo) Commit(ctx context.Context, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitMsgs = append(r.commitMsgs, message)
	return r.commitRef, r.commitErr
}

func (r *mockRepo) Push(ctx context.Context, branch string) error {
	r.mu.Lock()
	r.pushCalls++
	var err error
	if len(r.pushErrs) > 0 {
		err = r.pushErrs[0]
		r.pushErrs = r.pushErrs[1:]
	}
	block := r.pushBlock
	r.mu.Unlock()

	if block != nil {
		<-block
	}
	return err
}

func (r *mockRepo) FetchRebase(ctx context.Context, branch string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebaseCalls++
	return r.rebaseErr
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2.0}
}

func testBatch() *domain.ChangeBatch {
	now := time.Now()
	return &domain.ChangeBatch{
		Modified:    []string{"notes.md"},
		WindowStart: now.Add(-2 * time.Second),
		WindowEnd:   now,
	}
}

func testFiles() []domain.SanitizedFile {
	return []domain.SanitizedFile{{Path: "notes.md", Content: []byte("hello")}}
}

func TestSyncHappyPath(t *testing.T) {
	repo := &mockRepo{commitRef: "abc1234"}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushSuccess, session.PushResult)
	assert.Equal(t, "abc1234", session.CommitRef)
	assert.Equal(t, 1, session.AttemptCount)
	assert.Equal(t, []string{"notes.md"}, session.Files)
	require.Len(t, repo.commitMsgs, 1)
	assert.Contains(t, repo.commitMsgs[0], "resync: sync local changes")
	assert.Contains(t, repo.commitMsgs[0], "Change window:")
}

func TestSyncDescriptionInCommitSubject(t *testing.T) {
	repo := &mockRepo{commitRef: "abc1234"}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	_, err := committer.Sync(context.Background(), testBatch(), testFiles(), "pre-release docs pass")
	require.NoError(t, err)
	require.Len(t, repo.commitMsgs, 1)
	assert.Contains(t, repo.commitMsgs[0], "resync: pre-release docs pass")
}

func TestSyncNothingToStage(t *testing.T) {
	repo := &mockRepo{}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), &domain.ChangeBatch{}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushSuccess, session.PushResult)
	assert.Empty(t, session.CommitRef)
	assert.Equal(t, 0, repo.stageCalls)
	assert.Equal(t, 0, repo.pushCalls)
}

func TestSyncEmptyDiffSkipsPush(t *testing.T) {
	repo := &mockRepo{commitRef: ""}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushSuccess, session.PushResult)
	assert.Equal(t, 0, repo.pushCalls)
}

func TestSyncRejectedThenRebaseThenSuccess(t *testing.T) {
	repo := &mockRepo{
		commitRef: "abc1234",
		pushErrs:  []error{domain.ErrPushRejected, nil},
	}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushSuccess, session.PushResult)
	assert.Equal(t, 1, repo.rebaseCalls)
	assert.Equal(t, 2, repo.pushCalls)
	assert.Equal(t, 2, session.AttemptCount)
}

func TestSyncRejectedTwiceGivesUp(t *testing.T) {
	repo := &mockRepo{
		commitRef: "abc1234",
		pushErrs:  []error{domain.ErrPushRejected, domain.ErrPushRejected},
	}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushRejected, session.PushResult)
	// One rebase, no further retries after the post-rebase push fails.
	assert.Equal(t, 1, repo.rebaseCalls)
	assert.Equal(t, 2, repo.pushCalls)
}

func TestSyncRebaseFailureGivesUp(t *testing.T) {
	repo := &mockRepo{
		commitRef: "abc1234",
		pushErrs:  []error{domain.ErrPushRejected},
		rebaseErr: errors.New("rebase conflict"),
	}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushRejected, session.PushResult)
	assert.Contains(t, session.Error, "rebase conflict")
	assert.Equal(t, 1, repo.pushCalls)
}

func TestSyncNetworkErrorExhaustsRetries(t *testing.T) {
	netErr := errors.New("connection reset")
	repo := &mockRepo{
		commitRef: "abc1234",
		pushErrs:  []error{netErr, netErr, netErr},
	}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushNetworkError, session.PushResult)
	assert.Equal(t, 3, session.AttemptCount)
	assert.Equal(t, 3, repo.pushCalls)
	assert.Contains(t, session.Error, "connection reset")
}

func TestSyncNetworkErrorThenRecovery(t *testing.T) {
	repo := &mockRepo{
		commitRef: "abc1234",
		pushErrs:  []error{errors.New("timeout"), nil},
	}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushSuccess, session.PushResult)
	assert.Equal(t, 2, session.AttemptCount)
}

func TestSyncStageFailure(t *testing.T) {
	repo := &mockRepo{stageErr: errors.New("disk full")}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	session, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.PushNetworkError, session.PushResult)
	assert.Contains(t, session.Error, "disk full")
	assert.Equal(t, 0, repo.pushCalls)
}

func TestSyncConcurrentSessionRefused(t *testing.T) {
	repo := &mockRepo{commitRef: "abc1234", pushBlock: make(chan struct{})}
	committer := NewCommitter(repo, "resync-staging", fastRetry())

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		_, _ = committer.Sync(context.Background(), testBatch(), testFiles(), "")
	}()

	<-started
	// Wait until the first session is inside Push.
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.pushCalls > 0
	}, time.Second, 5*time.Millisecond)

	_, err := committer.Sync(context.Background(), testBatch(), testFiles(), "")
	assert.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(repo.pushBlock)
	<-done
}
