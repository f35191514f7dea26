package domain

import "time"

// PushResult classifies the terminal outcome of a sync session's push.
type PushResult string

// Push outcomes.
const (
	// PushSuccess means the commit was pushed to the target branch.
	// A session with no stageable changes also ends in PushSuccess,
	// with an empty CommitRef.
	PushSuccess PushResult = "success"

	// PushRejected means the remote diverged and the single
	// fetch-rebase-retry also failed. Local state is untouched.
	PushRejected PushResult = "rejected"

	// PushNetworkError means every backoff attempt failed on a
	// transient network error.
	PushNetworkError PushResult = "network_error"
)

// SyncSession is one execution of the sanitize-commit-push pipeline.
// At most one session is in progress at any time.
type SyncSession struct {
	// ID uniquely identifies the session.
	ID string

	// StartedAt is when the session began.
	StartedAt time.Time

	// EndedAt is when the session reached a terminal state.
	EndedAt time.Time

	// Files is the sanitized changed-file list staged by the session.
	Files []string

	// BlockedFiles counts files the sanitizer excluded entirely.
	BlockedFiles int

	// Findings counts credential-like matches that were rewritten.
	Findings int

	// CommitRef is the commit hash, set once committed.
	CommitRef string

	// PushResult is the terminal outcome.
	PushResult PushResult

	// AttemptCount is how many push attempts were made.
	AttemptCount int

	// Error holds the failure reason when PushResult is not success.
	Error string
}

// Succeeded reports whether the session ended in a successful push.
func (s *SyncSession) Succeeded() bool {
	return s.PushResult == PushSuccess
}
