package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"DailyBriefing/internal/logging"
	"DailyBriefing/internal/ports"
)

// Scheduler wires the daily trigger with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger

	mu   sync.Mutex
	last *RunReport
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: log}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report := s.pipeline.Run(ctx, trigger)
		s.mu.Lock()
		s.last = &report
		s.mu.Unlock()
		s.logger.Info("scheduled run finished",
			"date_key", report.DateKey,
			"state", report.State,
			"failures", len(report.Failures))
	}

	return s.driver.Start(ctx, job)
}

// LastReport returns the most recent scheduled run, if any.
func (s *Scheduler) LastReport() (RunReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return RunReport{}, false
	}
	return *s.last, true
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
