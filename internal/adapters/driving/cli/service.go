package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/logger"
)

// stopWait bounds how long stop and restart wait for the running
// instance to exit.
const stopWait = 35 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the sync service in the foreground",
	Long: `Starts the sync service: validates configuration and credentials,
watches the work tree and syncs changes to the staging branch until
interrupted.`,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running sync service",
	RunE:  runStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop the running sync service and start a new one",
	RunE:  runRestart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	installed, err := eng.host.Installed()
	if err != nil {
		return err
	}
	if !installed {
		return fmt.Errorf("%w: run 'resync install' first", domain.ErrNotInstalled)
	}

	// Configuration problems are fatal before anything starts.
	if err := eng.cfg.Validate(); err != nil {
		return err
	}

	if err := eng.host.Acquire(); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			pid, _ := eng.host.RunningPID()
			return fmt.Errorf("%w (pid %d)", domain.ErrAlreadyRunning, pid)
		}
		return err
	}
	defer eng.host.Release() //nolint:errcheck

	if err := eng.repo.Init(cmd.Context(), eng.cfg.TargetBranch); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting sync service (version %s)", version)
	return eng.supervisor.Run(ctx)
}

func runStop(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	return stopRunning(cmd, eng)
}

func runRestart(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}

	if _, running := eng.host.RunningPID(); running {
		if err := stopRunning(cmd, eng); err != nil {
			eng.Close()
			return err
		}
	}
	eng.Close()

	return runStart(cmd, nil)
}

// stopRunning signals the live instance and waits for it to exit.
func stopRunning(cmd *cobra.Command, eng *engine) error {
	pid, running := eng.host.RunningPID()
	if !running {
		return domain.ErrNotRunning
	}

	if err := eng.host.Signal(); err != nil {
		if errors.Is(err, domain.ErrNotRunning) {
			return domain.ErrNotRunning
		}
		return fmt.Errorf("stop: %w", err)
	}

	deadline := time.Now().Add(stopWait)
	for time.Now().Before(deadline) {
		if _, alive := eng.host.RunningPID(); !alive {
			cmd.Printf("Service stopped (pid %d).\n", pid)
			return nil
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("service (pid %d) did not stop within %s", pid, stopWait)
}
