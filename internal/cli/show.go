package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seshat-ai/seshat/pkg/sessionlog"
)

var (
	showWorkdir string
	showLatest  bool
)

var showCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session transcript",
	Long:  `Print the full transcript of one session, or of the most recent session with --latest.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showWorkdir, "workdir", "", "working directory the session is scoped to")
	showCmd.Flags().BoolVar(&showLatest, "latest", false, "show the most recently active session")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if showWorkdir == "" {
		return fmt.Errorf("--workdir is required")
	}

	store, _, err := buildStore(false)
	if err != nil {
		return err
	}

	var messages []sessionlog.Message
	switch {
	case showLatest:
		latest, err := store.GetLatestSession(cmd.Context(), showWorkdir)
		if err != nil {
			return err
		}
		if latest == nil {
			fmt.Println("No sessions found")
			return nil
		}
		fmt.Printf("Session %s (%s)\n\n", latest.Summary.ID, latest.Summary.Type)
		messages = latest.Messages
	case len(args) == 1:
		messages, err = store.LoadSession(cmd.Context(), args[0], showWorkdir)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("a session id or --latest is required")
	}

	if len(messages) == 0 {
		fmt.Println("No history available")
		return nil
	}

	for _, msg := range messages {
		fmt.Printf("[%s] %s\n", msg.Timestamp.Format(time.RFC3339), msg.Role)
		for _, block := range msg.Blocks {
			switch block.Type {
			case sessionlog.BlockText:
				fmt.Printf("  %s\n", block.Content)
			case sessionlog.BlockToolCall:
				fmt.Printf("  -> %s (%s)\n", block.ToolName, block.ToolCallID)
			case sessionlog.BlockToolResult:
				fmt.Printf("  <- %s\n", block.Content)
			}
		}
	}

	return nil
}
