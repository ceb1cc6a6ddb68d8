package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved analysis runs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs stored yet. Run 'casinolog analyze --save <logs>' to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%4s  %-20s  %-10s  %-10s  %5s  %7s  %8s  %s\n",
		"ID", "CREATED", "FROM", "TO", "FILES", "EVENTS", "SESSIONS", "LABEL")
	fmt.Fprintf(os.Stdout, "%4s  %-20s  %-10s  %-10s  %5s  %7s  %8s  %s\n",
		"────", "────────────────────", "──────────", "──────────", "─────", "───────", "────────", "─────")
	for _, r := range runs {
		fmt.Fprintf(os.Stdout, "%4d  %-20s  %-10s  %-10s  %5d  %7d  %8d  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.FirstDay, r.LastDay,
			r.Files, r.Events, r.Sessions, r.Label)
	}
	return nil
}
