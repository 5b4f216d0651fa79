// Package compile assembles ranked, summarized items into the dated
// briefing document. It is the only place documents are built.
package compile

import (
	"time"

	"DailyBriefing/internal/domain"
)

// SectionSpec declares one section in its fixed position.
type SectionSpec struct {
	Name    string
	Sources []string
}

// SourceResult is the terminal outcome of one source's pipeline.
type SourceResult struct {
	SourceID  string
	Summaries []domain.Summary
	Err       error
}

// Failed reports whether the source contributed nothing because of an error.
func (r SourceResult) Failed() bool { return r.Err != nil }

// Compiler builds documents in declared section order.
type Compiler struct {
	sections []SectionSpec
	now      func() time.Time
}

// New returns a Compiler for the declared sections. A nil clock uses
// time.Now.
func New(sections []SectionSpec, now func() time.Time) *Compiler {
	if now == nil {
		now = time.Now
	}
	return &Compiler{sections: sections, now: now}
}

// SourceIDs lists every declared source in section order.
func (c *Compiler) SourceIDs() []string {
	var ids []string
	for _, sec := range c.sections {
		ids = append(ids, sec.Sources...)
	}
	return ids
}

// Compile joins per-source results. Failed or absent sources leave their
// contribution empty and are listed in MissingSources; only a missing or
// malformed date key is fatal.
func (c *Compiler) Compile(dateKey string, results map[string]SourceResult) (domain.BriefingDocument, error) {
	if dateKey == "" {
		return domain.BriefingDocument{}, &domain.CompilationError{Reason: "date key is required"}
	}
	if _, err := domain.ParseDateKey(dateKey, time.UTC); err != nil {
		return domain.BriefingDocument{}, &domain.CompilationError{Reason: "malformed date key " + dateKey}
	}

	doc := domain.BriefingDocument{
		DateKey:        dateKey,
		Sections:       make([]domain.Section, 0, len(c.sections)),
		MissingSources: []string{},
	}

	for _, spec := range c.sections {
		section := domain.Section{Name: spec.Name, Items: []domain.Summary{}}
		for _, id := range spec.Sources {
			res, ok := results[id]
			if !ok || res.Failed() {
				doc.MissingSources = append(doc.MissingSources, id)
				continue
			}
			section.Items = append(section.Items, res.Summaries...)
		}
		doc.Sections = append(doc.Sections, section)
	}

	doc.Degraded = len(doc.MissingSources) > 0
	doc.GeneratedAt = c.now().UTC()
	return doc, nil
}

// Placeholder synthesizes the apology document returned when nothing can
// be retrieved: every section empty, every source missing.
func (c *Compiler) Placeholder(dateKey, notice string) domain.BriefingDocument {
	doc := domain.BriefingDocument{
		DateKey:        dateKey,
		Sections:       make([]domain.Section, 0, len(c.sections)),
		GeneratedAt:    c.now().UTC(),
		Degraded:       true,
		MissingSources: append([]string{}, c.SourceIDs()...),
		Notice:         notice,
	}
	for _, spec := range c.sections {
		doc.Sections = append(doc.Sections, domain.Section{Name: spec.Name, Items: []domain.Summary{}})
	}
	return doc
}

// Sample builds the static bootstrap document served by the placeholder
// backend: one illustrative item per section.
func (c *Compiler) Sample(dateKey string) domain.BriefingDocument {
	results := make(map[string]SourceResult)
	for _, spec := range c.sections {
		for i, id := range spec.Sources {
			var summaries []domain.Summary
			if i == 0 {
				summaries = []domain.Summary{{
					ItemRef: domain.ItemRef{
						SourceID: id,
						Title:    "Sample item for " + spec.Name,
						URL:      "https://example.com/" + spec.Name,
					},
					Text: "This is placeholder content. Configure a storage backend to serve real briefings.",
				}}
			}
			results[id] = SourceResult{SourceID: id, Summaries: summaries}
		}
	}
	doc, err := c.Compile(dateKey, results)
	if err != nil {
		return c.Placeholder(dateKey, "Placeholder briefing.")
	}
	return doc
}
