// Package retrieval serves briefings to consumers with a fallback chain so
// that every request yields a document.
package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/logging"
	"DailyBriefing/internal/ports"
)

// DefaultApology is served when no briefing can be found.
const DefaultApology = "Sorry, today's briefing isn't available yet. Please check back later."

// Origin tells which link of the fallback chain produced a document.
type Origin string

const (
	OriginExact       Origin = "exact"
	OriginPrior       Origin = "prior"
	OriginPlaceholder Origin = "placeholder"
)

// PlaceholderSource synthesizes the apology document.
type PlaceholderSource interface {
	Placeholder(dateKey, notice string) domain.BriefingDocument
}

// Options tunes the fallback chain.
type Options struct {
	LookbackDays int
	Timeout      time.Duration
	Budget       time.Duration
	Apology      string
	Location     *time.Location
	Now          func() time.Time
}

// Result is a retrieved document plus where it came from.
type Result struct {
	Document  domain.BriefingDocument
	Origin    Origin
	Requested string
}

// Gateway wraps a store reader; it never mutates records.
type Gateway struct {
	store        ports.BriefingReader
	placeholders PlaceholderSource
	opts         Options
	logger       *slog.Logger
}

// NewGateway wires the gateway. A zero LookbackDays disables step two.
func NewGateway(store ports.BriefingReader, placeholders PlaceholderSource, opts Options, log *slog.Logger) *Gateway {
	if opts.Apology == "" {
		opts.Apology = DefaultApology
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LookbackDays < 0 {
		opts.LookbackDays = 0
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Gateway{store: store, placeholders: placeholders, opts: opts, logger: log}
}

// Placeholder returns the apology document for dateKey without reading the
// store.
func (g *Gateway) Placeholder(dateKey string) Result {
	if dateKey == "" {
		dateKey = g.Today()
	}
	return g.placeholder(dateKey)
}

// Today returns the current date key in the configured timezone.
func (g *Gateway) Today() string {
	return domain.DateKey(g.opts.Now().In(g.opts.Location))
}

// Retrieve returns the best available document for dateKey. An empty key
// means today.
func (g *Gateway) Retrieve(ctx context.Context, dateKey string) domain.BriefingDocument {
	return g.Resolve(ctx, dateKey).Document
}

// Resolve walks the chain: exact date, then each prior date inside the
// look-back window newest first, then the apology placeholder. Budget bounds
// the whole walk; once it is spent the placeholder is served.
func (g *Gateway) Resolve(ctx context.Context, dateKey string) Result {
	if dateKey == "" {
		dateKey = g.Today()
	}
	log := g.logger.With("date_key", dateKey)

	if g.opts.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Budget)
		defer cancel()
	}

	day, err := domain.ParseDateKey(dateKey, g.opts.Location)
	if err != nil {
		log.Warn("invalid date key", "error", err)
		return g.placeholder(dateKey)
	}

	if doc, ok := g.lookup(ctx, log, dateKey); ok {
		return Result{Document: doc, Origin: OriginExact, Requested: dateKey}
	}
	for back := 1; back <= g.opts.LookbackDays; back++ {
		if err := ctx.Err(); err != nil {
			log.Warn("retrieval budget spent", "budget", g.opts.Budget, "error", err)
			return g.placeholder(dateKey)
		}
		prior := domain.DateKey(day.AddDate(0, 0, -back))
		if doc, ok := g.lookup(ctx, log, prior); ok {
			log.Info("serving prior briefing", "served", prior)
			return Result{Document: doc, Origin: OriginPrior, Requested: dateKey}
		}
	}

	log.Warn("no briefing within look-back window", "lookback_days", g.opts.LookbackDays)
	return g.placeholder(dateKey)
}

func (g *Gateway) lookup(ctx context.Context, log *slog.Logger, dateKey string) (domain.BriefingDocument, bool) {
	if g.store == nil {
		return domain.BriefingDocument{}, false
	}
	callCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	doc, err := g.store.Get(callCtx, dateKey)
	switch {
	case err == nil:
		return doc, true
	case errors.Is(err, domain.ErrNotFound):
		log.Debug("briefing not found", "lookup", dateKey)
	default:
		log.Warn("briefing read failed", "lookup", dateKey, "error", err)
	}
	return domain.BriefingDocument{}, false
}

func (g *Gateway) placeholder(dateKey string) Result {
	var doc domain.BriefingDocument
	if g.placeholders != nil {
		doc = g.placeholders.Placeholder(dateKey, g.opts.Apology)
	} else {
		doc = domain.BriefingDocument{
			DateKey:        dateKey,
			Sections:       []domain.Section{},
			GeneratedAt:    g.opts.Now().UTC(),
			Degraded:       true,
			MissingSources: []string{},
			Notice:         g.opts.Apology,
		}
	}
	return Result{Document: doc, Origin: OriginPlaceholder, Requested: dateKey}
}
