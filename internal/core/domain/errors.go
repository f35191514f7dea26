package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigInvalid indicates the engine configuration is unusable.
	// This is the only error that is fatal at startup.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrSyncInProgress indicates a sync session is already running.
	// Triggers arriving during a session are coalesced, never run concurrently.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrPushRejected indicates the remote diverged and the push was refused.
	ErrPushRejected = errors.New("push rejected")

	// ErrProtectedBranch indicates the configured target branch is a
	// protected branch. Pushes go to a staging branch only.
	ErrProtectedBranch = errors.New("target branch is protected")

	// ErrSanitizationBlocked indicates a file was excluded from sync
	// because it matched a sensitive-name pattern or could not be read.
	ErrSanitizationBlocked = errors.New("file blocked by sanitizer")

	// ErrInvalidTransition indicates a service state transition request
	// that is not permitted from the current state.
	ErrInvalidTransition = errors.New("invalid service state transition")

	// Service lifecycle errors.

	// ErrAlreadyInstalled indicates the service is already installed.
	ErrAlreadyInstalled = errors.New("service already installed")

	// ErrNotInstalled indicates the service has not been installed.
	ErrNotInstalled = errors.New("service not installed")

	// ErrAlreadyRunning indicates another engine instance holds the PID file.
	ErrAlreadyRunning = errors.New("service already running")

	// ErrNotRunning indicates no engine instance is running.
	ErrNotRunning = errors.New("service not running")
)

// FetchKind classifies a fetch failure.
type FetchKind string

// Fetch failure kinds.
const (
	FetchNetwork  FetchKind = "network"
	FetchNotFound FetchKind = "not_found"
	FetchTimeout  FetchKind = "timeout"
)

// FetchError is returned by the resource fetcher when every fallback
// (fresh cache, network, stale cache, static default) is exhausted.
type FetchError struct {
	URI  string
	Kind FetchKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URI, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err as a FetchError for uri.
func NewFetchError(uri string, kind FetchKind, err error) *FetchError {
	return &FetchError{URI: uri, Kind: kind, Err: err}
}

// IsFetchNotFound reports whether err is a FetchError of kind not_found.
func IsFetchNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchNotFound
}

// IsFetchTimeout reports whether err is a FetchError of kind timeout.
func IsFetchTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchTimeout
}
