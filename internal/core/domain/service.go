package domain

import "time"

// ServiceState is the lifecycle state of the long-running engine
// process. It is owned exclusively by the service supervisor; other
// components read it through accessors and never mutate it.
type ServiceState string

// Service states.
const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateSyncing  ServiceState = "syncing"
	StateDegraded ServiceState = "degraded"
	StateStopping ServiceState = "stopping"
)

// validTransitions enumerates the state machine edges. Degraded is a
// variant of Running entered after repeated sync failures.
var validTransitions = map[ServiceState][]ServiceState{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateStopped},
	StateRunning:  {StateSyncing, StateDegraded, StateStopping},
	StateSyncing:  {StateRunning, StateDegraded, StateStopping},
	StateDegraded: {StateSyncing, StateRunning, StateStopping},
	StateStopping: {StateStopped},
}

// CanTransition reports whether the state machine permits moving from
// s to next.
func (s ServiceState) CanTransition(next ServiceState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceStatus is a snapshot of the supervisor's state plus the most
// recent session outcome. It is what `status` reports and what the
// state store persists across restarts.
type ServiceStatus struct {
	// State is the current lifecycle state.
	State ServiceState

	// Since is when the current state was entered.
	Since time.Time

	// ConsecutiveFailures counts sync sessions that ended in
	// rejection or network error since the last success.
	ConsecutiveFailures int

	// LastSession is the most recent terminal sync session, if any.
	LastSession *SyncSession

	// PID is the process ID of the running engine, zero when stopped.
	PID int
}

// DegradedThreshold is how many consecutive failed sessions move the
// service from Running to Degraded.
const DegradedThreshold = 3
