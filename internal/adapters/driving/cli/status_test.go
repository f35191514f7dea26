package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/resync-dev/resync/internal/core/domain"
)

func TestRenderSession(t *testing.T) {
	started := time.Date(2026, 8, 28, 10, 30, 0, 0, time.Local)

	line := renderSession(&domain.SyncSession{
		StartedAt:  started,
		PushResult: domain.PushSuccess,
		CommitRef:  "abc1234def5678",
		Files:      []string{"a.md", "b.md"},
		Findings:   3,
	})
	assert.Contains(t, line, "2026-08-28 10:30:00")
	assert.Contains(t, line, "success")
	assert.Contains(t, line, "abc1234")
	assert.False(t, strings.Contains(line, "abc1234def"), "commit ref should be abbreviated")
	assert.Contains(t, line, "2 file(s)")
	assert.Contains(t, line, "3 redacted")

	line = renderSession(&domain.SyncSession{
		StartedAt:    started,
		PushResult:   domain.PushNetworkError,
		Error:        "connection reset",
		BlockedFiles: 1,
	})
	assert.Contains(t, line, "network_error")
	assert.Contains(t, line, "connection reset")
	assert.Contains(t, line, "1 blocked")
}

func TestRenderState(t *testing.T) {
	// Styles may or may not emit ANSI depending on the terminal; the
	// state name must survive either way.
	for _, state := range []domain.ServiceState{
		domain.StateStopped, domain.StateStarting, domain.StateRunning,
		domain.StateSyncing, domain.StateDegraded, domain.StateStopping,
	} {
		assert.Contains(t, renderState(state), string(state))
	}
}

func TestRenderAge(t *testing.T) {
	assert.Equal(t, "42s", renderAge(42*time.Second))
	assert.Equal(t, "5m", renderAge(5*time.Minute+3*time.Second))
	assert.Equal(t, "2h5m", renderAge(2*time.Hour+5*time.Minute))
	assert.Equal(t, "3d", renderAge(3*24*time.Hour+time.Hour))
}
