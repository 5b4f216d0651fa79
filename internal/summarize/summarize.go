// Package summarize owns the length-threshold policy around an opaque
// summarization capability.
package summarize

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// Options bounds the policy and the worker pool.
type Options struct {
	MaxLength int
	MinLength int
	Workers   int
	Timeout   time.Duration
}

// Summarizer applies the threshold policy and falls back to truncation when
// the capability misbehaves. A nil capability always truncates.
type Summarizer struct {
	capability ports.SummaryCapability
	opts       Options
	pool       *semaphore.Weighted
	logger     *slog.Logger
}

// New builds a Summarizer whose pool is shared by every caller.
func New(capability ports.SummaryCapability, opts Options, log *slog.Logger) *Summarizer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Summarizer{
		capability: capability,
		opts:       opts,
		pool:       semaphore.NewWeighted(int64(opts.Workers)),
		logger:     log,
	}
}

// Summarize returns text unchanged when it is at most MinLength characters,
// otherwise the capability output bounded by MaxLength. On capability error
// or empty output the original is truncated and WasSummarized is false.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, bool) {
	if utf8.RuneCountInString(text) <= s.opts.MinLength {
		return text, false
	}
	if s.capability == nil {
		return Truncate(text, s.opts.MaxLength), false
	}

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	out, err := s.capability.Summarize(callCtx, text, s.opts.MaxLength, s.opts.MinLength)
	if err != nil {
		s.warn("summarizer fallback", "capability", s.capability.Name(), "error", &domain.SummarizationError{Cause: err})
		return Truncate(text, s.opts.MaxLength), false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		s.warn("summarizer fallback", "capability", s.capability.Name(), "error", "empty output")
		return Truncate(text, s.opts.MaxLength), false
	}
	if utf8.RuneCountInString(out) > s.opts.MaxLength {
		out = Truncate(out, s.opts.MaxLength)
	}
	return out, true
}

// SummarizeAll summarizes items through the shared pool. Output order
// matches input order. Only cancellation of ctx is reported as an error.
func (s *Summarizer) SummarizeAll(ctx context.Context, items []domain.NormalizedItem) ([]domain.Summary, error) {
	out := make([]domain.Summary, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	for i, item := range items {
		if err := s.pool.Acquire(gCtx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer s.pool.Release(1)
			text, summarized := s.Summarize(gCtx, item.BodyText)
			out[i] = domain.Summary{ItemRef: item.Ref(), Text: text, WasSummarized: summarized}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Truncate cuts text to at most max characters.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}

func (s *Summarizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
