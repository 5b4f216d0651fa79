package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"DailyBriefing/internal/compile"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/logging"
	"DailyBriefing/internal/normalize"
	"DailyBriefing/internal/ports"
	"DailyBriefing/internal/rank"
	"DailyBriefing/internal/summarize"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxWriteBackoff     = 5 * time.Minute
)

// SectionPlan binds a declared section to its sources and policy.
type SectionPlan struct {
	Name    string
	Sources []string
	Policy  rank.Policy
}

// RetryPolicy bounds store writes.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources        []ports.SourceAdapter
	Sections       []SectionPlan
	SourceTimeouts map[string]time.Duration
	Normalizer     *normalize.Normalizer
	Summarizer     *summarize.Summarizer
	Compiler       *compile.Compiler
	Store          ports.BriefingStore
	Retry          RetryPolicy
	Location       *time.Location
	Logger         *slog.Logger
	Sleep          func(ctx context.Context, d time.Duration) error
}

// Pipeline drives one briefing run per call.
type Pipeline struct {
	sources    []ports.SourceAdapter
	sections   []SectionPlan
	timeouts   map[string]time.Duration
	normalizer *normalize.Normalizer
	summarizer *summarize.Summarizer
	compiler   *compile.Compiler
	store      ports.BriefingStore
	retry      RetryPolicy
	location   *time.Location
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// SourceFailure records why a source is missing from the briefing.
type SourceFailure struct {
	SourceID string
	Stage    RunState
	Err      error
}

// RunReport summarises one run. Document is set once compiled, even if
// persisting it later failed.
type RunReport struct {
	DateKey     string
	State       RunState
	Transitions []RunState
	Failures    []SourceFailure
	Document    *domain.BriefingDocument
	Attempts    int
	Err         error
}

type sourceRun struct {
	id         string
	raw        []domain.RawItem
	normalized []domain.NormalizedItem
	summaries  []domain.Summary
	err        error
	stage      RunState
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		sources:    deps.Sources,
		sections:   deps.Sections,
		timeouts:   deps.SourceTimeouts,
		normalizer: deps.Normalizer,
		summarizer: deps.Summarizer,
		compiler:   deps.Compiler,
		store:      deps.Store,
		retry:      deps.Retry,
		location:   deps.Location,
		logger:     deps.Logger,
		sleep:      deps.Sleep,
	}
	if p.location == nil {
		p.location = time.UTC
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	if p.normalizer == nil {
		p.normalizer = normalize.New(p.logger)
	}
	if p.sleep == nil {
		p.sleep = sleepContext
	}
	if p.retry.Attempts <= 0 {
		p.retry.Attempts = 1
	}
	return p
}

// Run executes fetch → normalize → summarize → rank → compile → persist for
// day. Per-source failures never fail the run; only configuration errors
// and an exhausted store write do.
func (p *Pipeline) Run(ctx context.Context, day time.Time) RunReport {
	report := RunReport{DateKey: domain.DateKey(day.In(p.location))}
	log := p.logger.With("date_key", report.DateKey)
	p.enter(&report, log, StateIdle)

	if err := p.checkConfig(); err != nil {
		report.Err = err
		p.enter(&report, log, StateFailed)
		return report
	}

	runs := make(map[string]*sourceRun, len(p.sources))
	for _, src := range p.sources {
		runs[src.ID()] = &sourceRun{id: src.ID()}
	}

	p.enter(&report, log, StateFetching)
	p.fetchAll(ctx, day, runs, log)
	if p.cancelled(ctx, &report, log) {
		return report
	}

	p.enter(&report, log, StateNormalizing)
	for _, run := range runs {
		if run.err == nil {
			run.normalized = p.normalizer.NormalizeAll(run.id, run.raw)
			run.raw = nil
		}
	}
	if p.cancelled(ctx, &report, log) {
		return report
	}

	p.enter(&report, log, StateSummarizing)
	if err := p.summarizeAll(ctx, runs); err != nil {
		report.Err = err
		p.enter(&report, log, StateCancelled)
		return report
	}
	if p.cancelled(ctx, &report, log) {
		return report
	}

	p.enter(&report, log, StateRanking)
	results := p.rankAll(runs)
	if p.cancelled(ctx, &report, log) {
		return report
	}

	p.enter(&report, log, StateCompiling)
	report.Failures = collectFailures(p.sources, runs)
	for _, f := range report.Failures {
		log.Warn("source missing", "source", f.SourceID, "stage", f.Stage, "error", f.Err)
	}
	doc, err := p.compiler.Compile(report.DateKey, results)
	if err != nil {
		report.Err = err
		p.enter(&report, log, StateFailed)
		return report
	}
	report.Document = &doc
	if p.cancelled(ctx, &report, log) {
		return report
	}

	p.enter(&report, log, StatePersisting)
	attempts, err := p.persist(ctx, doc, log)
	report.Attempts = attempts
	if err != nil {
		report.Err = err
		if ctx.Err() != nil {
			report.Document = nil
			p.enter(&report, log, StateCancelled)
		} else {
			p.enter(&report, log, StateFailed)
		}
		return report
	}

	p.enter(&report, log, StateDone)
	log.Info("briefing stored", "degraded", doc.Degraded, "missing", doc.MissingSources, "attempts", attempts)
	return report
}

func (p *Pipeline) checkConfig() error {
	switch {
	case p.compiler == nil:
		return fmt.Errorf("pipeline: compiler is not configured")
	case p.summarizer == nil:
		return fmt.Errorf("pipeline: summarizer is not configured")
	case p.store == nil:
		return fmt.Errorf("pipeline: store is not configured")
	}
	planned := map[string]bool{}
	for _, sec := range p.sections {
		for _, id := range sec.Sources {
			planned[id] = true
		}
	}
	for _, src := range p.sources {
		if !planned[src.ID()] {
			return fmt.Errorf("pipeline: source %s is not planned in any section", src.ID())
		}
	}
	return nil
}

// fetchAll runs every adapter concurrently, each under its own timeout.
func (p *Pipeline) fetchAll(ctx context.Context, day time.Time, runs map[string]*sourceRun, log *slog.Logger) {
	var g errgroup.Group
	for _, src := range p.sources {
		run := runs[src.ID()]
		g.Go(func() error {
			timeout := p.timeouts[src.ID()]
			if timeout <= 0 {
				timeout = defaultFetchTimeout
			}
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			started := time.Now()
			items, err := src.Fetch(fetchCtx, day)
			if err != nil {
				var fe *domain.FetchError
				if !errors.As(err, &fe) {
					err = &domain.FetchError{SourceID: src.ID(), Cause: err}
				}
				run.err, run.stage = err, StateFetching
				return nil
			}
			run.raw = items
			log.Debug("source fetched", "source", src.ID(), "items", len(items), "elapsed", time.Since(started))
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) summarizeAll(ctx context.Context, runs map[string]*sourceRun) error {
	var g errgroup.Group
	for _, run := range runs {
		if run.err != nil {
			continue
		}
		g.Go(func() error {
			summaries, err := p.summarizer.SummarizeAll(ctx, run.normalized)
			if err != nil {
				return err
			}
			run.summaries = summaries
			run.normalized = nil
			return nil
		})
	}
	return g.Wait()
}

// rankAll applies each section's policy to each of its sources.
func (p *Pipeline) rankAll(runs map[string]*sourceRun) map[string]compile.SourceResult {
	results := make(map[string]compile.SourceResult, len(runs))
	for _, sec := range p.sections {
		for _, id := range sec.Sources {
			run, ok := runs[id]
			if !ok {
				continue
			}
			if run.err != nil {
				results[id] = compile.SourceResult{SourceID: id, Err: run.err}
				continue
			}
			results[id] = compile.SourceResult{SourceID: id, Summaries: rank.Select(run.summaries, sec.Policy)}
		}
	}
	return results
}

func (p *Pipeline) persist(ctx context.Context, doc domain.BriefingDocument, log *slog.Logger) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= p.retry.Attempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, writeBackoff(p.retry.Backoff, attempt)); err != nil {
				return attempt - 1, err
			}
		}
		err := p.store.Put(ctx, doc.DateKey, doc)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		log.Warn("store write failed", "backend", p.store.Backend(), "attempt", attempt, "error", err)
		if domain.IsUnsupported(err) || ctx.Err() != nil {
			return attempt, err
		}
	}
	return p.retry.Attempts, fmt.Errorf("store write exhausted %d attempts: %w", p.retry.Attempts, lastErr)
}

// enter records a transition. A terminal state is never left.
func (p *Pipeline) enter(report *RunReport, log *slog.Logger, state RunState) {
	if report.State.Terminal() {
		log.Error("transition after terminal state", "from", report.State, "to", state)
		return
	}
	report.State = state
	report.Transitions = append(report.Transitions, state)
	switch state {
	case StateFailed:
		log.Error("run failed", "error", report.Err)
	case StateCancelled:
		log.Warn("run cancelled", "error", report.Err)
	default:
		log.Debug("run stage", "stage", state)
	}
}

// cancelled moves the run to Cancelled when ctx is done. Work done so far
// is discarded.
func (p *Pipeline) cancelled(ctx context.Context, report *RunReport, log *slog.Logger) bool {
	if err := ctx.Err(); err != nil {
		report.Err = err
		report.Document = nil
		p.enter(report, log, StateCancelled)
		return true
	}
	return false
}

func collectFailures(sources []ports.SourceAdapter, runs map[string]*sourceRun) []SourceFailure {
	var failures []SourceFailure
	for _, src := range sources {
		if run := runs[src.ID()]; run != nil && run.err != nil {
			failures = append(failures, SourceFailure{SourceID: run.id, Stage: run.stage, Err: run.err})
		}
	}
	return failures
}

// writeBackoff doubles base for every retry after the first, capped at
// maxWriteBackoff.
func writeBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	wait := base
	for i := 2; i < attempt; i++ {
		if wait >= maxWriteBackoff/2 {
			return maxWriteBackoff
		}
		wait *= 2
	}
	return min(wait, maxWriteBackoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
