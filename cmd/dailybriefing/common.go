package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"DailyBriefing/internal/app"
	"DailyBriefing/internal/config"
	"DailyBriefing/internal/logging"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadApp(ctx context.Context, overrides ...func(*config.Config)) (*app.Application, config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	for _, apply := range overrides {
		apply(&cfg)
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return nil, cfg, logger, err
	}
	return application, cfg, logger, nil
}
