package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resync-dev/resync/internal/core/domain"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the sync service on this host",
	RunE:  runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the sync service registration",
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.host.Install(); err != nil {
		if errors.Is(err, domain.ErrAlreadyInstalled) {
			return domain.ErrAlreadyInstalled
		}
		return fmt.Errorf("install: %w", err)
	}

	cmd.Printf("Service installed. Configuration: %s\n", eng.store.Path())
	cmd.Println("Run 'resync check' to verify the configuration, then 'resync start'.")
	return nil
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	if _, running := eng.host.RunningPID(); running {
		return errors.New("service is running, stop it first")
	}

	if err := eng.host.Uninstall(); err != nil {
		if errors.Is(err, domain.ErrNotInstalled) {
			cmd.Println("Service is not installed.")
			return nil
		}
		return fmt.Errorf("uninstall: %w", err)
	}

	cmd.Println("Service uninstalled.")
	return nil
}
