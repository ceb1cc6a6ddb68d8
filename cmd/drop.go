package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/storage"
)

var (
	dropForce bool
	dropRun   int64
)

// dropCmd deletes one saved run, or the whole database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete a saved run or the whole database",
	Long: `With --run, delete one saved run. Without it, permanently delete the SQLite
database file; every saved run is lost. Re-run 'casinolog analyze --save' to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().Int64Var(&dropRun, "run", 0, "delete only this run id")
}

func runDrop(cmd *cobra.Command, args []string) error {
	target := dbPath
	if dropRun > 0 {
		target = fmt.Sprintf("run %d in %s", dropRun, dbPath)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropRun > 0 {
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		if err := db.DeleteRun(dropRun); err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", target)
		return nil
	}

	if err := os.Remove(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
