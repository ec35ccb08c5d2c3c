package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List scan runs",
	Long:  `Lists all scan runs, newest first, with their type and status.`,
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if graphStore == nil {
		return errors.New("store not configured")
	}

	runs, err := graphStore.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No scan runs recorded yet.")
		return nil
	}

	cmd.Printf("%-38s %-6s %-10s %s\n", "RUN ID", "TYPE", "STATUS", "STARTED")
	for _, run := range runs {
		cmd.Printf("%-38s %-6s %-10s %s\n",
			run.ID, run.Type, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
