package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupForce bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete sessions older than the retention window",
	Long: `Delete every session whose last activity predates the configured
retention window. Outside a production runtime this is a no-op unless
--force is given.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupForce, "force", false, "run cleanup even outside a production runtime")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	store, cfg, err := buildStore(cleanupForce)
	if err != nil {
		return err
	}

	deleted, err := store.CleanupExpiredSessions(cmd.Context())
	if err != nil {
		return err
	}

	if deleted == 0 && !cfg.IsProduction() && !cleanupForce {
		fmt.Println("Cleanup is disabled outside production (use --force to override)")
		return nil
	}

	fmt.Printf("Deleted %d expired session(s)\n", deleted)
	return nil
}
