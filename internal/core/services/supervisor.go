package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
	"github.com/resync-dev/resync/internal/core/ports/driving"
	"github.com/resync-dev/resync/internal/logger"
)

// Ensure Supervisor implements the interface.
var _ driving.Supervisor = (*Supervisor)(nil)

// stopTimeout bounds how long shutdown waits for the active session.
const stopTimeout = 30 * time.Second

// sessionHistoryKeep bounds the persisted session history.
const sessionHistoryKeep = 100

// trigger is an on-demand sync request.
type trigger struct {
	description string
	batch       *domain.ChangeBatch
}

// Supervisor owns the service lifecycle state machine and runs the
// periodic sync loop. All state transitions happen on the Run
// goroutine, never concurrently, which keeps the machine's invariants
// simple. Sync work itself runs on a session goroutine; a trigger
// arriving while a session is active is coalesced into the next one.
type Supervisor struct {
	cfg       *domain.Config
	watcher   driven.ChangeWatcher
	sanitizer *Sanitizer
	committer *Committer
	state     driven.StateStore
	remote    driven.RemoteClient
	enhancer  driving.TaskEnhancer

	mu     sync.RWMutex
	status domain.ServiceStatus

	triggerCh chan trigger
	stopCh    chan struct{}
	stopOnce  sync.Once
	doneCh    chan struct{}
	running   bool
}

// NewSupervisor creates a supervisor. The enhancer may be nil, in
// which case operator descriptions pass through unchanged.
func NewSupervisor(
	cfg *domain.Config,
	watcher driven.ChangeWatcher,
	sanitizer *Sanitizer,
	committer *Committer,
	state driven.StateStore,
	remote driven.RemoteClient,
	enhancer driving.TaskEnhancer,
) *Supervisor {
	if enhancer == nil {
		enhancer = NopEnhancer{}
	}
	return &Supervisor{
		cfg:       cfg,
		watcher:   watcher,
		sanitizer: sanitizer,
		committer: committer,
		state:     state,
		remote:    remote,
		enhancer:  enhancer,
		status:    domain.ServiceStatus{State: domain.StateStopped},
		triggerCh: make(chan trigger, 8),
	}
}

// Run validates configuration, starts the change watcher and the
// periodic timer, and blocks until the context ends or Stop is called.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stopOnce = sync.Once{}
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.doneCh)
	}()

	s.transition(ctx, domain.StateStarting)

	// Configuration problems are the only fatal startup errors.
	if err := s.cfg.Validate(); err != nil {
		s.transition(ctx, domain.StateStopped)
		return err
	}
	if err := s.remote.Validate(ctx); err != nil {
		s.transition(ctx, domain.StateStopped)
		return fmt.Errorf("%w: credential check failed: %v", domain.ErrConfigInvalid, err)
	}

	batches, err := s.watcher.Watch(ctx)
	if err != nil {
		s.transition(ctx, domain.StateStopped)
		return fmt.Errorf("start watcher: %w", err)
	}
	defer s.watcher.Close() //nolint:errcheck

	s.mu.Lock()
	s.status.PID = os.Getpid()
	s.mu.Unlock()
	s.transition(ctx, domain.StateRunning)
	logger.Info("supervisor: running, sync interval %s", s.cfg.SyncInterval)

	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	var (
		pending     *domain.ChangeBatch
		pendingDesc string
		activeBatch *domain.ChangeBatch
		activeDesc  string
		sessionDone chan *domain.SyncSession
	)

	coalesce := func(batch *domain.ChangeBatch) {
		if pending == nil {
			pending = &domain.ChangeBatch{}
		}
		pending.Merge(batch)
	}

	maybeStart := func() {
		if sessionDone != nil || pending == nil || pending.Empty() {
			return
		}
		activeBatch, activeDesc = pending, pendingDesc
		pending, pendingDesc = nil, ""
		sessionDone = s.startSession(ctx, activeBatch, activeDesc)
	}

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(sessionDone)

		case <-s.stopCh:
			return s.shutdown(sessionDone)

		case batch, ok := <-batches:
			if !ok {
				return s.shutdown(sessionDone)
			}
			logger.Debug("supervisor: change batch (%d added, %d modified, %d removed)",
				len(batch.Added), len(batch.Modified), len(batch.Removed))
			coalesce(&batch)
			maybeStart()

		case trig := <-s.triggerCh:
			if desc, err := s.enhancer.Enhance(ctx, trig.description); err == nil {
				trig.description = desc
			}
			if trig.description != "" {
				pendingDesc = trig.description
			}
			coalesce(trig.batch)
			maybeStart()

		case <-ticker.C:
			if pending == nil || pending.Empty() {
				logger.Debug("supervisor: periodic tick, no pending changes")
				continue
			}
			maybeStart()

		case session := <-sessionDone:
			sessionDone = nil
			s.recordOutcome(ctx, session)
			if !session.Succeeded() {
				// A failed session's changes stay pending so the next
				// tick or change event retries them.
				coalesce(activeBatch)
				if pendingDesc == "" {
					pendingDesc = activeDesc
				}
			} else {
				maybeStart()
			}
			activeBatch, activeDesc = nil, ""
		}
	}
}

// startSession runs sanitize-then-commit on its own goroutine and
// returns the channel its terminal session arrives on.
func (s *Supervisor) startSession(ctx context.Context, batch *domain.ChangeBatch, description string) chan *domain.SyncSession {
	s.transition(ctx, domain.StateSyncing)

	done := make(chan *domain.SyncSession, 1)
	go func() {
		sanitized := s.sanitizer.Sanitize(batch.Paths())
		session, err := s.committer.Sync(ctx, batch, sanitized.Files, description)
		if err != nil {
			// Sessions are serialized by this loop, so a concurrency
			// refusal here indicates a bug; surface it as a failure.
			session = &domain.SyncSession{
				ID:         "refused",
				StartedAt:  time.Now(),
				EndedAt:    time.Now(),
				PushResult: domain.PushNetworkError,
				Error:      err.Error(),
			}
		}
		session.BlockedFiles = len(sanitized.Blocked)
		for _, f := range sanitized.Findings {
			session.Findings += f.Count
		}
		done <- session
	}()
	return done
}

// recordOutcome folds a terminal session into the state machine:
// repeated failures degrade the service, the next success recovers it.
func (s *Supervisor) recordOutcome(ctx context.Context, session *domain.SyncSession) {
	s.mu.Lock()
	if session.Succeeded() {
		s.status.ConsecutiveFailures = 0
	} else {
		s.status.ConsecutiveFailures++
	}
	failures := s.status.ConsecutiveFailures
	s.status.LastSession = session
	stopping := s.status.State == domain.StateStopping
	s.mu.Unlock()

	if err := s.state.RecordSession(ctx, session); err != nil {
		logger.Error("supervisor: record session: %v", err)
	}
	if err := s.state.PruneHistory(ctx, sessionHistoryKeep); err != nil {
		logger.Error("supervisor: prune history: %v", err)
	}

	// A session drained during shutdown is recorded but moves no state;
	// the machine is already on its way to Stopped.
	if stopping {
		if !session.Succeeded() {
			logger.Warn("supervisor: sync failed (%s): %s", session.PushResult, session.Error)
		}
		return
	}

	if failures >= domain.DegradedThreshold {
		logger.Error("supervisor: %d consecutive sync failures, degraded (last: %s)",
			failures, session.Error)
		s.transition(ctx, domain.StateDegraded)
		return
	}
	if !session.Succeeded() {
		logger.Warn("supervisor: sync failed (%s): %s", session.PushResult, session.Error)
	}
	s.transition(ctx, domain.StateRunning)
}

// shutdown waits for the active session to finish or time out, then
// stops.
func (s *Supervisor) shutdown(sessionDone chan *domain.SyncSession) error {
	s.transition(context.Background(), domain.StateStopping)

	if sessionDone != nil {
		select {
		case session := <-sessionDone:
			s.recordOutcome(context.Background(), session)
		case <-time.After(stopTimeout):
			logger.Warn("supervisor: active session did not finish within %s", stopTimeout)
		}
	}

	s.mu.Lock()
	s.status.PID = 0
	s.mu.Unlock()
	s.transition(context.Background(), domain.StateStopped)
	logger.Info("supervisor: stopped")
	return nil
}

// transition moves the state machine, persisting the new state.
// Invalid transitions are reported and refused, never fatal.
func (s *Supervisor) transition(ctx context.Context, next domain.ServiceState) {
	s.mu.Lock()
	current := s.status.State
	if current != next && !current.CanTransition(next) {
		s.mu.Unlock()
		logger.Error("supervisor: %v: %s -> %s", domain.ErrInvalidTransition, current, next)
		return
	}
	s.status.State = next
	s.status.Since = time.Now()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.state.SaveStatus(ctx, snapshot); err != nil {
		logger.Error("supervisor: persist status: %v", err)
	}
}

// Stop requests a cooperative shutdown and waits for the run loop to
// exit.
func (s *Supervisor) Stop() error {
	s.mu.RLock()
	running := s.running
	stopCh := s.stopCh
	doneCh := s.doneCh
	s.mu.RUnlock()

	if !running {
		return domain.ErrNotRunning
	}

	s.stopOnce.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		return nil
	case <-time.After(stopTimeout + 5*time.Second):
		return fmt.Errorf("stop: run loop did not exit within %s", stopTimeout)
	}
}

// TriggerSync requests an on-demand sync. Paths are treated as
// modified; an empty list syncs whatever changes are already pending.
// If a session is active the request coalesces into the next session.
func (s *Supervisor) TriggerSync(description string, paths []string) {
	now := time.Now()
	batch := &domain.ChangeBatch{
		Modified:    append([]string(nil), paths...),
		WindowStart: now,
		WindowEnd:   now,
	}
	select {
	case s.triggerCh <- trigger{description: description, batch: batch}:
	default:
		logger.Warn("supervisor: trigger queue full, request dropped")
	}
}

// Status returns the current state plus the last session outcome. When
// the supervisor is not running in this process, the persisted state
// is consulted so status works across restarts.
func (s *Supervisor) Status(ctx context.Context) (*domain.ServiceStatus, error) {
	s.mu.RLock()
	running := s.running
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	if running {
		return snapshot, nil
	}
	return LoadStatus(ctx, s.state)
}

// snapshotLocked copies the current status. Caller holds s.mu.
func (s *Supervisor) snapshotLocked() *domain.ServiceStatus {
	snapshot := s.status
	if s.status.LastSession != nil {
		sessionCopy := *s.status.LastSession
		snapshot.LastSession = &sessionCopy
	}
	return &snapshot
}

// LoadStatus reads the persisted service status, defaulting to a
// stopped status when nothing was ever persisted.
func LoadStatus(ctx context.Context, store driven.StateStore) (*domain.ServiceStatus, error) {
	status, err := store.LoadStatus(ctx)
	if err != nil {
		return &domain.ServiceStatus{State: domain.StateStopped}, nil
	}
	if status.LastSession == nil {
		if last, err := store.LastSession(ctx); err == nil {
			status.LastSession = last
		}
	}
	return status, nil
}
