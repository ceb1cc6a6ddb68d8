package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/model"
	"github.com/pable/casinolog/internal/report"
	"github.com/pable/casinolog/internal/storage"
)

var (
	eventsRun     int64
	eventsSession int
)

var eventsCmd = &cobra.Command{
	Use:   "events <category> <group>",
	Short: "Print the raw log lines behind one aggregate figure",
	Long: `Look up the session index of a saved run and print the events behind it.

The group is the bar item, slot machine or changer prize name; player-to-player
events use the group "total". Without --session every session of the group is
printed.`,
	Example: `  casinolog events bar 一万搾り
  casinolog events slot unknown --session 3 --run 2`,
	Args: cobra.ExactArgs(2),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().Int64Var(&eventsRun, "run", 0, "run id (default latest)")
	eventsCmd.Flags().IntVar(&eventsSession, "session", -1, "session index within the category")
}

func runEvents(cmd *cobra.Command, args []string) error {
	category := model.Category(args[0])
	group := args[1]
	if !isCategory(category) {
		return fmt.Errorf("unknown category %q", args[0])
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRun(eventsRun)
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

	found := false
	for _, key := range stats.Index.Keys() {
		if key.Category != category || key.Group != group {
			continue
		}
		if eventsSession >= 0 && key.Session != eventsSession {
			continue
		}
		events, err := db.GetEvents(run.ID, stats.Index[key]...)
		if err != nil {
			return fmt.Errorf("get events: %w", err)
		}
		found = true
		fmt.Fprintf(os.Stdout, "\n%s / %s / session %d\n", key.Category, key.Group, key.Session)
		report.PrintEventTable(os.Stdout, events)
	}
	if !found {
		fmt.Fprintf(os.Stderr, "No sessions recorded for %s/%s.\n", category, group)
	}
	return nil
}

func isCategory(c model.Category) bool {
	for _, k := range model.Categories {
		if k == c {
			return true
		}
	}
	return false
}
