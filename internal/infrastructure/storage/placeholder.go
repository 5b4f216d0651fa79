package storage

import (
	"context"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// BackendPlaceholder is the Backend() name of Placeholder.
const BackendPlaceholder = "placeholder"

// SampleSource produces the static document for a date.
type SampleSource interface {
	Sample(dateKey string) domain.BriefingDocument
}

// Placeholder serves a static sample briefing for any date. Used to
// bootstrap deployments that have no real backend yet.
type Placeholder struct {
	samples SampleSource
}

var _ ports.BriefingStore = (*Placeholder)(nil)

// NewPlaceholder wires the sample generator.
func NewPlaceholder(samples SampleSource) *Placeholder {
	return &Placeholder{samples: samples}
}

// Backend implements ports.BriefingStore.
func (p *Placeholder) Backend() string { return BackendPlaceholder }

// Put always fails: there is nothing to write to.
func (p *Placeholder) Put(context.Context, string, domain.BriefingDocument) error {
	return unsupported(BackendPlaceholder, "put")
}

// Get returns the sample document for dateKey.
func (p *Placeholder) Get(_ context.Context, dateKey string) (domain.BriefingDocument, error) {
	return p.samples.Sample(dateKey), nil
}
