package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/services"
)

// Status colours follow the usual traffic-light reading.
var (
	styleRunning  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Bold(true)
	styleWorking  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")).Bold(true)
	styleDegraded = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
	styleStopped  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Bold(true)
	styleLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

var statusHistory int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service state and recent sync sessions",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusHistory, "history", 5, "number of recent sessions to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	status, err := services.LoadStatus(cmd.Context(), eng.state)
	if err != nil {
		return err
	}

	// The persisted state can outlive a crashed process; the PID file
	// is the ground truth for liveness.
	pid, alive := eng.host.RunningPID()
	if !alive && status.State != domain.StateStopped {
		status.State = domain.StateStopped
		status.PID = 0
	}

	cmd.Printf("%s %s\n", styleLabel.Render("State:"), renderState(status.State))
	if alive {
		cmd.Printf("%s %d\n", styleLabel.Render("PID:"), pid)
	}
	if !status.Since.IsZero() {
		cmd.Printf("%s %s (%s)\n", styleLabel.Render("Since:"),
			status.Since.Local().Format(time.RFC3339), renderAge(time.Since(status.Since)))
	}
	if status.ConsecutiveFailures > 0 {
		cmd.Printf("%s %d\n", styleLabel.Render("Consecutive failures:"), status.ConsecutiveFailures)
	}

	if status.LastSession != nil {
		cmd.Printf("\n%s\n", styleLabel.Render("Last session:"))
		cmd.Println(renderSession(status.LastSession))
	}

	if statusHistory > 1 {
		history, err := eng.state.SessionHistory(cmd.Context(), statusHistory)
		if err == nil && len(history) > 1 {
			cmd.Printf("\n%s\n", styleLabel.Render("Recent sessions:"))
			for i := range history {
				cmd.Println(renderSession(&history[i]))
			}
		}
	}

	return nil
}

// renderState colours a lifecycle state.
func renderState(state domain.ServiceState) string {
	text := string(state)
	switch state {
	case domain.StateRunning:
		return styleRunning.Render(text)
	case domain.StateStarting, domain.StateSyncing, domain.StateStopping:
		return styleWorking.Render(text)
	case domain.StateDegraded:
		return styleDegraded.Render(text)
	default:
		return styleStopped.Render(text)
	}
}

// renderSession formats one session as a single line.
func renderSession(session *domain.SyncSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s  %s", session.StartedAt.Local().Format("2006-01-02 15:04:05"), session.PushResult)
	if session.CommitRef != "" {
		fmt.Fprintf(&b, "  %.7s", session.CommitRef)
	}
	fmt.Fprintf(&b, "  %d file(s)", len(session.Files))
	if session.Findings > 0 {
		fmt.Fprintf(&b, ", %d redacted", session.Findings)
	}
	if session.BlockedFiles > 0 {
		fmt.Fprintf(&b, ", %d blocked", session.BlockedFiles)
	}
	if session.Error != "" {
		fmt.Fprintf(&b, "  (%s)", session.Error)
	}
	return b.String()
}

// renderAge formats a duration in coarse human units.
func renderAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
