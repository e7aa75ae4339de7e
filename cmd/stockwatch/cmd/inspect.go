package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rfountain/stockwatch/internal/config"
	"github.com/rfountain/stockwatch/pkg/logger"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [handle]",
	Short: "Extract a single product and print the result",
	Long: "Runs the extraction cascade against one product handle and prints " +
		"the resolved product as JSON. No discovery, no snapshot, no " +
		"notifications. Useful for debugging extraction against a live store.",
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	eng := buildEngine(cfg, log)

	product, err := eng.Inspect(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("inspecting %q: %w", args[0], err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(product)
}
