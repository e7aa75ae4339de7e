// Package cmd implements the CLI commands for stockwatch.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stockwatch",
	Short: "Monitor an online catalog for restocks and price changes",
	Long: "stockwatch periodically discovers the products of an online catalog, " +
		"extracts each product's sellable variants, compares the result against " +
		"the previous run, and posts typed change events (new product, new variant, " +
		"price change, restock) to a Discord webhook.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
