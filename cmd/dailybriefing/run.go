package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/usecase"
)

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the briefing pipeline once",
	Long: `Fetches every configured source, summarizes and ranks the items, compiles the briefing for
the date and writes it to the configured store. Exits non-zero only if the store write fails.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runDate, "date", "", "Briefing date YYYY-MM-DD (defaults to today in the configured timezone)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, cfg, _, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	day := time.Now().In(cfg.Location())
	if runDate != "" {
		day, err = domain.ParseDateKey(runDate, cfg.Location())
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	report, err := application.RunOnce(ctx, day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "briefing %s: %s (attempts: %d)\n", report.DateKey, report.State, report.Attempts)
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  missing %s at %s: %v\n", f.SourceID, f.Stage, f.Err)
	}
	if report.Document != nil {
		for _, s := range report.Document.Sections {
			fmt.Fprintf(out, "  %s: %d items\n", s.Name, len(s.Items))
		}
	}

	if report.State == usecase.StateFailed {
		return fmt.Errorf("run failed: %w", report.Err)
	}
	return nil
}
