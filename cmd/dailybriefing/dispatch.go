package main

import (
	"github.com/spf13/cobra"

	"DailyBriefing/internal/app"
)

var (
	dispatchDate      string
	dispatchDebug     bool
	dispatchEmailOnly bool
	dispatchVoiceOnly bool
	dispatchOutDir    string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver the briefing to email and voice channels",
	Long: `Retrieves the briefing through the fallback chain and renders it. The email rendering is
written to disk and the digest is sent to Telegram when configured; the voice rendering is
published to voice_briefing.json. With --debug, renderings are only written to disk.`,
	RunE: runDispatch,
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchDate, "date", "", "Briefing date YYYY-MM-DD (defaults to today)")
	dispatchCmd.Flags().BoolVar(&dispatchDebug, "debug", false, "Write debug_email.html and debug_voice.txt instead of delivering")
	dispatchCmd.Flags().BoolVar(&dispatchEmailOnly, "email-only", false, "Only deliver the email channel")
	dispatchCmd.Flags().BoolVar(&dispatchVoiceOnly, "voice-only", false, "Only publish the voice channel")
	dispatchCmd.Flags().StringVar(&dispatchOutDir, "out", ".", "Directory for written files")
	dispatchCmd.MarkFlagsMutuallyExclusive("email-only", "voice-only")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	application, _, _, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Dispatch(ctx, app.DispatchOptions{
		Date:      dispatchDate,
		Debug:     dispatchDebug,
		EmailOnly: dispatchEmailOnly,
		VoiceOnly: dispatchVoiceOnly,
		OutDir:    dispatchOutDir,
	})
}
