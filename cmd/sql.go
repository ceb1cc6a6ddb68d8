package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/report"
	"github.com/pable/casinolog/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the run database",
	Long: `Run an arbitrary SQL query against the run database and print results as a table.

Schema overview:
  runs(id, created_at, label, first_day, last_day, files, events, sessions)
  events(run_id, id, time, category, direction, amount, name, role, price, chat)
  stats(run_id, category, group_name, item_name, pay_amount, gain_amount, total,
    pay_count, gain_count, lose_count, unit_price, payout, duration_ms, probability)
  histograms(run_id, category, group_name, item_name, kind, bucket, count)
    kind: role, source, outcome, message
  streaks(run_id, item, kind, seq, count, start_id, end_id)
  session_index(run_id, category, group_name, session, seq, event_id)

Root nodes have empty group_name and item_name. Example:
  casinolog sql "SELECT item_name, total FROM stats WHERE run_id = 1 AND category = 'bar' AND item_name != '' ORDER BY total"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "(no rows)")
		return nil
	}

	report.PrintRows(os.Stdout, cols, rows)
	return nil
}
