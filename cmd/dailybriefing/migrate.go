package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the keyed-table schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		application, _, _, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Migrate(ctx)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
