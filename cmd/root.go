package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/casinolog/internal/config"
	"github.com/pable/casinolog/internal/logging"
)

var (
	cfgPath  string
	dbPath   string
	logLevel string
	logJSON  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "casinolog",
	Short: "Casino statistics from Minecraft client logs",
	Long: `Reconstruct bar, slot, changer and player-to-player gambling events from
client chat logs and report spend, payout, streaks and win probability.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "casinolog.yaml", "path to YAML config (missing file is fine)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// setup loads configuration and initialises logging before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.DB
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(logJSON, logging.ParseLevel(level))
	return nil
}
