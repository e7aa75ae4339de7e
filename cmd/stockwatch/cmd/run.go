package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rfountain/stockwatch/internal/config"
	"github.com/rfountain/stockwatch/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single monitoring run",
	Long: "Discovers the catalog, extracts all products, diffs against the " +
		"previous snapshot, persists the new snapshot, and sends notifications " +
		"for any changes. Exits when the run completes.",
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	eng := buildEngine(cfg, log)

	summary, err := eng.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Printf("Run %s: %d handles, %d products, %d events (%s)\n",
		summary.RunID,
		summary.Handles,
		summary.Products,
		len(summary.Events),
		summary.Duration.Round(time.Millisecond),
	)
	return nil
}
