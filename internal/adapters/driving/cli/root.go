// Package cli implements the command-line interface: service
// lifecycle commands (install, start, stop, status, restart), health
// checks and one-off fetch and sync operations.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/resync-dev/resync/internal/logger"
)

var (
	version = "dev"

	flagVerbose   bool
	flagConfigDir string
)

var rootCmd = &cobra.Command{
	Use:   "resync",
	Short: "Resource synchronization engine",
	Long: `resync keeps a local work tree and a remote repository in sync.

It fetches remote resources with caching and fallbacks, watches the
work tree for changes, scrubs credential-like content before anything
leaves the machine, and pushes sanitized commits to a staging branch.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.resync)")
}

// Execute runs the CLI.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
