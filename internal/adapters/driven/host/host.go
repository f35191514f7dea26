// Package host implements the HostService port with file markers
// under the engine data directory: an install marker plus a PID file
// for single-instance enforcement and stop signalling.
package host

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.HostService = (*Service)(nil)

const (
	installMarker = "installed"
	pidFile       = "resync.pid"
)

// Service is the file-based host binding.
type Service struct {
	dataDir string
}

// NewService creates a host service rooted at dataDir.
func NewService(dataDir string) *Service {
	return &Service{dataDir: dataDir}
}

// Install registers the engine by writing the install marker.
func (s *Service) Install() error {
	installed, err := s.Installed()
	if err != nil {
		return err
	}
	if installed {
		return domain.ErrAlreadyInstalled
	}
	if err := os.MkdirAll(s.dataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return os.WriteFile(s.markerPath(), []byte{}, 0600)
}

// Uninstall removes the registration.
func (s *Service) Uninstall() error {
	installed, err := s.Installed()
	if err != nil {
		return err
	}
	if !installed {
		return domain.ErrNotInstalled
	}
	return os.Remove(s.markerPath())
}

// Installed reports whether the engine is registered.
func (s *Service) Installed() (bool, error) {
	_, err := os.Stat(s.markerPath())
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Acquire claims the PID file for this process. A PID file pointing at
// a dead process is treated as stale and taken over.
func (s *Service) Acquire() error {
	if pid, alive := s.RunningPID(); alive && pid != os.Getpid() {
		return domain.ErrAlreadyRunning
	}
	if err := os.MkdirAll(s.dataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return os.WriteFile(s.pidPath(), []byte(strconv.Itoa(os.Getpid())), 0600)
}

// Release drops the PID file. Safe to call when not held.
func (s *Service) Release() error {
	err := os.Remove(s.pidPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RunningPID returns the PID from a live PID file.
func (s *Service) RunningPID() (int, bool) {
	data, err := os.ReadFile(s.pidPath())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if !processAlive(pid) {
		return 0, false
	}
	return pid, true
}

// Signal sends SIGTERM to the running instance.
func (s *Service) Signal() error {
	pid, alive := s.RunningPID()
	if !alive {
		return domain.ErrNotRunning
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	return proc.Signal(syscall.SIGTERM)
}

func (s *Service) markerPath() string {
	return filepath.Join(s.dataDir, installMarker)
}

func (s *Service) pidPath() string {
	return filepath.Join(s.dataDir, pidFile)
}

// processAlive probes the PID with signal 0.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
