package ports

import (
	"context"
	"time"

	"DailyBriefing/internal/domain"
)

// SourceAdapter fetches raw items for one configured source.
type SourceAdapter interface {
	ID() string
	Kind() domain.SourceKind
	Fetch(ctx context.Context, day time.Time) ([]domain.RawItem, error)
}

// SummaryCapability shortens text. Implementations must not exceed maxLength
// and must return non-empty output for non-empty input.
type SummaryCapability interface {
	Name() string
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// BriefingStore persists briefing documents keyed by date.
type BriefingStore interface {
	Backend() string
	Put(ctx context.Context, dateKey string, doc domain.BriefingDocument) error
	Get(ctx context.Context, dateKey string) (domain.BriefingDocument, error)
}

// BriefingReader is the read side used by retrieval.
type BriefingReader interface {
	Get(ctx context.Context, dateKey string) (domain.BriefingDocument, error)
}

// Notifier delivers a rendered digest to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
