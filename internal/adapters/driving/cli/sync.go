package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/resync-dev/resync/internal/core/domain"
	"github.com/resync-dev/resync/internal/core/services"
)

var syncMessage string

var syncCmd = &cobra.Command{
	Use:   "sync <path>...",
	Short: "Run one sanitize-commit-push session for the given paths",
	Long: `Runs a single on-demand sync session: the given work-tree paths are
sanitized, committed and pushed to the staging branch. Paths are
relative to the work tree.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncMessage, "message", "m", "", "description for the commit subject")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.cfg.Validate(); err != nil {
		return err
	}
	if err := eng.repo.Init(cmd.Context(), eng.cfg.TargetBranch); err != nil {
		return err
	}

	description, err := services.NopEnhancer{}.Enhance(cmd.Context(), syncMessage)
	if err != nil {
		description = syncMessage
	}

	now := time.Now()
	batch := &domain.ChangeBatch{Modified: args, WindowStart: now, WindowEnd: now}

	sanitized := eng.sanitizer.Sanitize(args)
	for _, blocked := range sanitized.Blocked {
		cmd.Printf("blocked %s (sensitive or unreadable)\n", blocked)
	}
	for _, finding := range sanitized.Findings {
		cmd.Printf("redacted %d %s match(es) in %s\n", finding.Count, finding.Category, finding.Path)
	}

	session, err := eng.committer.Sync(cmd.Context(), batch, sanitized.Files, description)
	if err != nil {
		return err
	}

	switch session.PushResult {
	case domain.PushSuccess:
		if session.CommitRef == "" {
			cmd.Println("Nothing to sync.")
		} else {
			cmd.Printf("Synced %d file(s) as %.7s.\n", len(session.Files), session.CommitRef)
		}
		return nil
	default:
		return fmt.Errorf("sync %s: %s", session.PushResult, session.Error)
	}
}
