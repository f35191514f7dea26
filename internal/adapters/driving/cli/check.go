package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify configuration and remote credentials",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	cmd.Printf("Configuration: %s\n", eng.store.Path())

	if err := eng.cfg.Validate(); err != nil {
		return err
	}
	cmd.Println("  configuration: ok")

	if info, err := os.Stat(eng.cfg.WorkTree); err != nil || !info.IsDir() {
		return fmt.Errorf("work tree %s is not a directory", eng.cfg.WorkTree)
	}
	cmd.Printf("  work tree: %s\n", eng.cfg.WorkTree)

	if err := eng.remote.Validate(cmd.Context()); err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}
	cmd.Printf("  remote: %s/%s ok\n", eng.cfg.Remote.Owner, eng.cfg.Remote.Repo)
	cmd.Printf("  target branch: %s\n", eng.cfg.TargetBranch)

	cmd.Println("All checks passed.")
	return nil
}
