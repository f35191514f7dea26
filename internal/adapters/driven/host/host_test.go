package host

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resync-dev/resync/internal/core/domain"
)

func TestInstallUninstallCycle(t *testing.T) {
	svc := NewService(t.TempDir())

	installed, err := svc.Installed()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, svc.Install())
	installed, err = svc.Installed()
	require.NoError(t, err)
	assert.True(t, installed)

	assert.ErrorIs(t, svc.Install(), domain.ErrAlreadyInstalled)

	require.NoError(t, svc.Uninstall())
	assert.ErrorIs(t, svc.Uninstall(), domain.ErrNotInstalled)
}

func TestAcquireRelease(t *testing.T) {
	svc := NewService(t.TempDir())

	require.NoError(t, svc.Acquire())
	pid, alive := svc.RunningPID()
	assert.True(t, alive)
	assert.Equal(t, os.Getpid(), pid)

	// Re-acquiring from the same process is fine.
	require.NoError(t, svc.Acquire())

	require.NoError(t, svc.Release())
	_, alive = svc.RunningPID()
	assert.False(t, alive)

	// Releasing again is a no-op.
	require.NoError(t, svc.Release())
}

func TestStalePIDFileIsTakenOver(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir)

	// A PID that cannot belong to a live process.
	require.NoError(t, os.WriteFile(filepath.Join(dir, pidFile), []byte("999999"), 0600))
	_, alive := svc.RunningPID()
	assert.False(t, alive)

	require.NoError(t, svc.Acquire())
	pid, alive := svc.RunningPID()
	assert.True(t, alive)
	assert.Equal(t, os.Getpid(), pid)
}

func TestRunningPIDMalformedFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, pidFile), []byte("not-a-pid"), 0600))
	_, alive := svc.RunningPID()
	assert.False(t, alive)
}

func TestSignalWithoutInstance(t *testing.T) {
	svc := NewService(t.TempDir())
	assert.ErrorIs(t, svc.Signal(), domain.ErrNotRunning)
}

func TestPIDFileContents(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir)
	require.NoError(t, svc.Acquire())

	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}
