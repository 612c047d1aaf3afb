package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seshat-ai/seshat/pkg/catalog"
)

var (
	listWorkdir     string
	listAllWorkdirs bool
	listSubagents   bool
	listWithStarted bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	Long:  `List session summaries for one working directory, or across all of them.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listWorkdir, "workdir", "", "working directory to list sessions for")
	listCmd.Flags().BoolVar(&listAllWorkdirs, "all", false, "aggregate sessions across every working directory")
	listCmd.Flags().BoolVar(&listSubagents, "subagents", false, "include subagent sessions")
	listCmd.Flags().BoolVar(&listWithStarted, "started", false, "derive session start times as well")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if !listAllWorkdirs && listWorkdir == "" {
		return fmt.Errorf("either --workdir or --all is required")
	}

	store, _, err := buildStore(false)
	if err != nil {
		return err
	}

	summaries, err := store.ListSessions(cmd.Context(), catalog.ListOptions{
		Workdir:          listWorkdir,
		AllWorkdirs:      listAllWorkdirs,
		IncludeSubagents: listSubagents,
		WithStartedAt:    listWithStarted,
	})
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	for _, s := range summaries {
		fmt.Printf("%-24s %-8s %-20s %8d tokens  %s\n",
			s.ID, s.Type, s.LastActiveAt.Format(time.RFC3339), s.LatestTotalTokens, s.Workdir)
	}

	return nil
}
