package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteWorkdir string

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteWorkdir, "workdir", "", "working directory the session is scoped to")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deleteWorkdir == "" {
		return fmt.Errorf("--workdir is required")
	}

	store, _, err := buildStore(false)
	if err != nil {
		return err
	}

	deleted, err := store.DeleteSession(cmd.Context(), args[0], deleteWorkdir)
	if err != nil {
		return err
	}

	if deleted {
		fmt.Printf("Deleted session %s\n", args[0])
	} else {
		fmt.Printf("Session %s not found\n", args[0])
	}

	return nil
}
