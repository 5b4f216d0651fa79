// Package main provides the daily briefing command line: pipeline runs,
// the retrieval server, dispatch and schema migration.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dailybriefing",
	Short: "Daily Briefing pipeline and retrieval server",
	Long: `Daily Briefing fetches research papers, tech stories and feed articles, summarizes them
into one date-keyed briefing, stores it, and serves it to email and voice consumers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (defaults to DAILY_BRIEFING_CONFIG)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
