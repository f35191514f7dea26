package driven

// HostService is the minimal platform binding for the long-running
// engine process: install/uninstall markers and single-instance
// enforcement via a PID file. The lifecycle state machine itself is
// identical across host operating systems; only this binding differs.
type HostService interface {
	// Install registers the engine on this host.
	// Returns domain.ErrAlreadyInstalled if already registered.
	Install() error

	// Uninstall removes the registration.
	// Returns domain.ErrNotInstalled if not registered.
	Uninstall() error

	// Installed reports whether the engine is registered.
	Installed() (bool, error)

	// Acquire claims the running-instance PID file.
	// Returns domain.ErrAlreadyRunning if a live instance holds it.
	Acquire() error

	// Release drops the PID file. Safe to call when not held.
	Release() error

	// RunningPID returns the PID of a live running instance, or
	// (0, false) when none is running.
	RunningPID() (int, bool)

	// Signal asks the running instance to stop.
	// Returns domain.ErrNotRunning when no instance is alive.
	Signal() error
}
