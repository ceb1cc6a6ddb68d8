package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/report"
	"github.com/pable/casinolog/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print the statistics of a saved run (latest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

// parseRunID reads an optional run id argument; 0 means the latest run.
func parseRunID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", args[0])
	}
	return id, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args)
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		fmt.Fprintln(os.Stderr, "No matching run found.")
		return nil
	}

	stats, err := db.GetStats(run.ID)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\nRun %d  |  %s – %s  |  %d files  |  %d events  |  %s\n",
		run.ID, run.FirstDay, run.LastDay, run.Files, run.Events, run.Label)
	report.PrintAll(os.Stdout, stats)
	return nil
}
