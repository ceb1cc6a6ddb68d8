package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/catalog"
	"github.com/pable/casinolog/internal/logfile"
	"github.com/pable/casinolog/internal/pipeline"
	"github.com/pable/casinolog/internal/report"
	"github.com/pable/casinolog/internal/storage"
)

var (
	analyzeFrom        string
	analyzeTo          string
	analyzeUTF8        bool
	analyzeSave        bool
	analyzeLabel       string
	analyzeBarCatalog  string
	analyzeSlotCatalog string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <log-dir-or-file>...",
	Short: "Analyze client logs and print casino statistics",
	Long: `Read client logs (YYYY-MM-DD-N.log, YYYY-MM-DD-N.log.gz, latest.log), rebuild
casino events and print per-category tables. Directories are scanned
non-recursively. Logs are decoded as Shift-JIS unless --utf8 is given.

With --save the run is stored in the database for list, show, events and sql.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "first log date to include (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "last log date to include (YYYY-MM-DD)")
	analyzeCmd.Flags().BoolVar(&analyzeUTF8, "utf8", false, "logs are UTF-8 instead of Shift-JIS")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "store the run in the database")
	analyzeCmd.Flags().StringVar(&analyzeLabel, "label", "", "label for the saved run")
	analyzeCmd.Flags().StringVar(&analyzeBarCatalog, "bar-catalog", "", "bar catalog file (overrides config)")
	analyzeCmd.Flags().StringVar(&analyzeSlotCatalog, "slot-catalog", "", "slot catalog file (overrides config)")
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	from, err := parseDay(analyzeFrom)
	if err != nil {
		return err
	}
	to, err := parseDay(analyzeTo)
	if err != nil {
		return err
	}

	barPath, slotPath := cfg.Catalog.Bar, cfg.Catalog.Slot
	if analyzeBarCatalog != "" {
		barPath = analyzeBarCatalog
	}
	if analyzeSlotCatalog != "" {
		slotPath = analyzeSlotCatalog
	}
	cat, err := catalog.Load(barPath, slotPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	days, err := logfile.Load(args, logfile.Options{From: from, To: to, UTF8: analyzeUTF8})
	if err != nil {
		return fmt.Errorf("load logs: %w", err)
	}
	if len(days) == 0 {
		fmt.Fprintln(os.Stderr, "No log files matched.")
		return nil
	}
	slog.Info("logs loaded", "files", len(days))

	res, err := pipeline.Run(days, cat, cfg)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	slog.Info("analysis complete", "events", len(res.Events), "sessions", len(res.Sessions))

	report.PrintAll(os.Stdout, res.Stats)

	if !analyzeSave {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	info := storage.RunInfo{
		Label:    analyzeLabel,
		FirstDay: days[0].Date.Format("2006-01-02"),
		LastDay:  days[len(days)-1].Date.Format("2006-01-02"),
		Files:    len(days),
		Sessions: len(res.Sessions),
	}
	id, err := db.SaveRun(info, res.Events, res.Stats)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\nSaved as run %d.\n", id)
	return nil
}
