package main

import (
	"github.com/spf13/cobra"

	"DailyBriefing/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the retrieval server",
	Long: `Serves GET /daily-briefing and the voice and email views. When scheduler.enabled is set,
also runs the pipeline once a day at scheduler.runAt.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, _, _, err := loadApp(ctx, func(cfg *config.Config) {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
	})
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Serve(ctx)
}
