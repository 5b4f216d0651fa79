// Package normalize maps each source family's native entries onto the
// common item shape.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DailyBriefing/internal/domain"
)

// Normalizer converts raw items and drops the ones missing required fields.
type Normalizer struct {
	logger *slog.Logger
}

// New returns a Normalizer logging dropped items to log.
func New(log *slog.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// Normalize maps one raw item. Items without a title or URL fail with a
// NormalizationError.
func Normalize(raw domain.RawItem) (domain.NormalizedItem, error) {
	var item domain.NormalizedItem

	switch p := raw.Payload.(type) {
	case domain.PaperEntry:
		item = domain.NormalizedItem{
			Title:    collapseSpace(p.Title),
			URL:      strings.TrimSpace(p.URL),
			BodyText: collapseSpace(p.Abstract),
			Authors:  p.Authors,
		}
		if !p.PublishedAt.IsZero() {
			t := p.PublishedAt.UTC()
			item.PublishedAt = &t
		}
	case domain.StoryEntry:
		score := float64(p.Score)
		item = domain.NormalizedItem{
			Title:         collapseSpace(p.Title),
			URL:           strings.TrimSpace(p.URL),
			Score:         &score,
			DiscussionURL: p.DiscussionURL,
		}
		if p.Time > 0 {
			t := time.Unix(p.Time, 0).UTC()
			item.PublishedAt = &t
		}
	case domain.FeedEntry:
		item = domain.NormalizedItem{
			Title:    collapseSpace(htmlToText(p.Title)),
			URL:      strings.TrimSpace(p.Link),
			BodyText: htmlToText(p.Summary),
			FeedName: p.FeedName,
		}
		if p.PublishedAt != nil {
			t := p.PublishedAt.UTC()
			item.PublishedAt = &t
		}
	default:
		return domain.NormalizedItem{}, &domain.NormalizationError{
			SourceID: raw.SourceID,
			Field:    "payload",
			Reason:   fmt.Sprintf("unsupported payload %T", raw.Payload),
		}
	}

	item.SourceID = raw.SourceID
	if item.Title == "" {
		return domain.NormalizedItem{}, &domain.NormalizationError{SourceID: raw.SourceID, Field: "title"}
	}
	if item.URL == "" {
		return domain.NormalizedItem{}, &domain.NormalizationError{SourceID: raw.SourceID, Field: "url"}
	}
	return item, nil
}

// NormalizeAll maps every raw item in order, logging and skipping failures.
// A source whose items all fail still yields an empty, non-nil slice.
func (n *Normalizer) NormalizeAll(sourceID string, raws []domain.RawItem) []domain.NormalizedItem {
	out := make([]domain.NormalizedItem, 0, len(raws))
	for i, raw := range raws {
		item, err := Normalize(raw)
		if err != nil {
			if n.logger != nil {
				n.logger.Warn("item dropped", "source", sourceID, "index", i, "error", err)
			}
			continue
		}
		out = append(out, item)
	}
	return out
}

// htmlToText strips markup from feed bodies, keeping readable text.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	doc.Find("script, style").Remove()
	doc.Find("p, br, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
