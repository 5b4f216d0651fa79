package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"DailyBriefing/internal/compile"
	"DailyBriefing/internal/config"
	"DailyBriefing/internal/dispatch"
	"DailyBriefing/internal/infrastructure/llm"
	"DailyBriefing/internal/infrastructure/ml"
	"DailyBriefing/internal/infrastructure/scheduler"
	"DailyBriefing/internal/infrastructure/sources"
	"DailyBriefing/internal/infrastructure/storage"
	"DailyBriefing/internal/infrastructure/telegram"
	"DailyBriefing/internal/logging"
	"DailyBriefing/internal/normalize"
	"DailyBriefing/internal/ports"
	"DailyBriefing/internal/rank"
	"DailyBriefing/internal/retrieval"
	"DailyBriefing/internal/server"
	"DailyBriefing/internal/source"
	"DailyBriefing/internal/summarize"
	"DailyBriefing/internal/usecase"
)

// ErrReadOnlyBackend is returned when a run targets a backend without Put.
var ErrReadOnlyBackend = errors.New("storage backend is read-only")

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	compiler *compile.Compiler
	store    ports.BriefingStore
	pipeline *usecase.Pipeline
	gateway  *retrieval.Gateway
	labels   dispatch.Labels
	email    *dispatch.EmailRenderer
	voice    *dispatch.VoiceRenderer
	notifier *telegram.Notifier
	closers  []func()
}

// Options lets callers replace infrastructure, mostly in tests.
type Options struct {
	Store      ports.BriefingStore
	Capability ports.SummaryCapability
	Registry   *source.Registry
	Now        func() time.Time
}

// New builds the application from configuration.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	specs := make([]compile.SectionSpec, 0, len(cfg.Sections))
	plans := make([]usecase.SectionPlan, 0, len(cfg.Sections))
	for _, sec := range cfg.Sections {
		policy, err := rank.FromConfig(sec.Policy)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", sec.Name, err)
		}
		specs = append(specs, compile.SectionSpec{Name: sec.Name, Sources: sec.Sources})
		plans = append(plans, usecase.SectionPlan{Name: sec.Name, Sources: sec.Sources, Policy: policy})
	}
	a.compiler = compile.New(specs, opts.Now)

	registry := opts.Registry
	if registry == nil {
		registry = source.NewRegistry()
		sources.Register(registry, baseLogger)
	}
	adapters, err := registry.Build(cfg.Sources)
	if err != nil {
		return nil, err
	}
	timeouts := make(map[string]time.Duration, len(cfg.Sources))
	for _, src := range cfg.Sources {
		timeouts[src.ID] = src.Timeout
	}

	capability := opts.Capability
	if capability == nil {
		capability, err = a.buildCapability(ctx, cfg.Summarization)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	summarizer := summarize.New(capability, summarize.Options{
		MaxLength: cfg.Summarization.MaxLength,
		MinLength: cfg.Summarization.MinLength,
		Workers:   cfg.Summarization.Workers,
		Timeout:   cfg.Summarization.Timeout,
	}, baseLogger.With("component", "summarizer"))

	a.store = opts.Store
	if a.store == nil {
		store, closeStore, err := storage.Open(ctx, cfg.Storage, a.compiler)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
		}
		a.store = store
		a.closers = append(a.closers, closeStore)
	}
	if cfg.Storage.Backend == config.BackendPlaceholder {
		baseLogger.Warn("placeholder storage backend selected; briefings are synthesized, not stored")
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Sources:        adapters,
		Sections:       plans,
		SourceTimeouts: timeouts,
		Normalizer:     normalize.New(baseLogger.With("component", "normalizer")),
		Summarizer:     summarizer,
		Compiler:       a.compiler,
		Store:          a.store,
		Retry:          usecase.RetryPolicy{Attempts: cfg.Storage.WriteAttempts, Backoff: cfg.Storage.WriteBackoff},
		Location:       cfg.Location(),
		Logger:         baseLogger.With("component", "pipeline"),
	})

	a.gateway = retrieval.NewGateway(a.store, a.compiler, retrieval.Options{
		LookbackDays: cfg.Retrieval.LookbackDays,
		Timeout:      cfg.Retrieval.Timeout,
		Budget:       cfg.Retrieval.Budget,
		Apology:      cfg.Retrieval.Apology,
		Location:     cfg.Location(),
		Now:          opts.Now,
	}, baseLogger.With("component", "retrieval"))

	a.labels = dispatch.LabelsFromConfig(cfg.Sections)
	a.email = dispatch.NewEmailRenderer(a.labels)
	a.voice = dispatch.NewVoiceRenderer(a.labels)
	a.notifier = telegram.NewNotifier(cfg.Notifications.Telegram)

	return a, nil
}

func (a *Application) buildCapability(ctx context.Context, cfg config.SummarizationConfig) (ports.SummaryCapability, error) {
	switch cfg.Provider {
	case config.ProviderML:
		return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey), nil
	case config.ProviderOpenAI:
		return llm.NewChatGPTClient(cfg.OpenAI), nil
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return client, nil
	default:
		return nil, nil
	}
}

// Close releases store connections and model clients.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Store exposes the configured backend.
func (a *Application) Store() ports.BriefingStore { return a.store }

// Gateway exposes the retrieval gateway.
func (a *Application) Gateway() *retrieval.Gateway { return a.gateway }

// RunOnce executes the pipeline for day. Read-only backends are rejected
// before any source is fetched.
func (a *Application) RunOnce(ctx context.Context, day time.Time) (usecase.RunReport, error) {
	if !a.cfg.Storage.Backend.Writable() {
		return usecase.RunReport{}, fmt.Errorf("%w: %s", ErrReadOnlyBackend, a.cfg.Storage.Backend)
	}
	return a.pipeline.Run(ctx, day.In(a.cfg.Location())), nil
}

// Serve runs the HTTP server and, when enabled, the daily scheduler until
// ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	var lastRun func() (server.RunStatus, bool)
	if a.cfg.Scheduler.Enabled {
		if !a.cfg.Storage.Backend.Writable() {
			return fmt.Errorf("scheduler enabled: %w: %s", ErrReadOnlyBackend, a.cfg.Storage.Backend)
		}
		driver, err := scheduler.NewDailyScheduler(a.cfg.Scheduler.RunAt, a.cfg.Location())
		if err != nil {
			return err
		}
		sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := sched.Stop(stopCtx); err != nil {
				a.logger.Warn("stop scheduler", "error", err)
			}
		}()
		a.logger.Info("scheduler started", "run_at", a.cfg.Scheduler.RunAt, "timezone", a.cfg.Timezone)
		lastRun = func() (server.RunStatus, bool) {
			report, ok := sched.LastReport()
			if !ok {
				return server.RunStatus{}, false
			}
			return RunStatus(report), true
		}
	}

	srv := server.New(a.cfg.Server.Addr, server.Deps{
		Gateway:     a.gateway,
		Email:       a.email,
		Voice:       a.voice,
		VoiceRouter: dispatch.NewVoiceRouter(a.gateway, a.voice, a.logger.With("component", "voice")),
		LastRun:     lastRun,
		Logger:      a.logger.With("component", "server"),
	})
	return srv.Run(ctx)
}

// RunStatus converts a run report for the health endpoint.
func RunStatus(report usecase.RunReport) server.RunStatus {
	missing := make([]string, 0, len(report.Failures))
	for _, f := range report.Failures {
		missing = append(missing, f.SourceID)
	}
	return server.RunStatus{DateKey: report.DateKey, State: string(report.State), MissingSources: missing}
}

// DispatchOptions selects channels for Dispatch.
type DispatchOptions struct {
	Date      string
	Debug     bool
	EmailOnly bool
	VoiceOnly bool
	OutDir    string
}

// Output file names written by Dispatch.
const (
	DebugEmailFile       = "debug_email.html"
	DebugVoiceFile       = "debug_voice.txt"
	EmailFile            = "briefing_email.html"
	VoicePublicationFile = "voice_briefing.json"
)

// Dispatch retrieves a briefing through the gateway and delivers it. Debug
// mode only writes the renderings to disk.
func (a *Application) Dispatch(ctx context.Context, opts DispatchOptions) error {
	if opts.EmailOnly && opts.VoiceOnly {
		return errors.New("--email-only and --voice-only are mutually exclusive")
	}
	res := a.gateway.Resolve(ctx, opts.Date)
	doc := res.Document
	log := a.logger.With("date_key", doc.DateKey, "origin", res.Origin)

	html, err := a.email.Render(doc)
	if err != nil {
		return err
	}
	speech := a.voice.Render(doc)

	if opts.Debug {
		if err := writeFile(opts.OutDir, DebugEmailFile, html); err != nil {
			return err
		}
		if err := writeFile(opts.OutDir, DebugVoiceFile, speech.Text); err != nil {
			return err
		}
		log.Info("debug renderings written", "dir", opts.OutDir)
		return nil
	}

	var errs []error
	if !opts.VoiceOnly {
		if err := writeFile(opts.OutDir, EmailFile, html); err != nil {
			errs = append(errs, err)
		}
		if a.notifier.Configured() {
			if err := a.notifier.PublishDigest(ctx, dispatch.Digest(doc, a.labels)); err != nil {
				log.Error("telegram delivery failed", "error", err)
				errs = append(errs, err)
			} else {
				log.Info("digest delivered", "channel", "telegram")
			}
		}
	}
	if !opts.EmailOnly {
		path := filepath.Join(opts.OutDir, VoicePublicationFile)
		if err := dispatch.WriteVoicePublication(path, doc.DateKey, speech.Text, time.Now()); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("voice briefing published", "path", path)
		}
	}
	return errors.Join(errs...)
}

// Migrate prepares the keyed-table schema. Other backends need nothing.
func (a *Application) Migrate(ctx context.Context) error {
	table, ok := a.store.(*storage.KeyedTable)
	if !ok {
		a.logger.Info("nothing to migrate", "backend", a.store.Backend())
		return nil
	}
	if err := table.EnsureSchema(ctx); err != nil {
		return err
	}
	a.logger.Info("schema ready", "backend", table.Backend())
	return nil
}

func writeFile(dir, name, content string) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
