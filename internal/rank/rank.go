// Package rank implements per-section selection policies.
package rank

import (
	"fmt"
	"sort"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
)

// Policy selects and orders items for a section. Limit <= 0 means no cap.
type Policy struct {
	Kind  config.PolicyKind
	Limit int
}

// TopNByScore keeps the n highest-scored items.
func TopNByScore(n int) Policy { return Policy{Kind: config.PolicyTopNByScore, Limit: n} }

// AllChronological keeps up to cap items, newest first.
func AllChronological(cap int) Policy { return Policy{Kind: config.PolicyAllChronological, Limit: cap} }

// AllUnordered keeps up to cap items in input order.
func AllUnordered(cap int) Policy { return Policy{Kind: config.PolicyAllUnordered, Limit: cap} }

// FromConfig converts a declared policy.
func FromConfig(cfg config.PolicyConfig) (Policy, error) {
	switch cfg.Kind {
	case config.PolicyTopNByScore, config.PolicyAllChronological, config.PolicyAllUnordered:
		return Policy{Kind: cfg.Kind, Limit: cfg.Limit}, nil
	default:
		return Policy{}, fmt.Errorf("unknown rank policy %q", cfg.Kind)
	}
}

// Select applies p to summaries without mutating the input. Every ordering
// is stable, so ties keep input order.
func Select(items []domain.Summary, p Policy) []domain.Summary {
	out := make([]domain.Summary, len(items))
	copy(out, items)

	switch p.Kind {
	case config.PolicyTopNByScore:
		sort.SliceStable(out, func(i, j int) bool { return byScore(out[i].ItemRef, out[j].ItemRef) })
	case config.PolicyAllChronological:
		sort.SliceStable(out, func(i, j int) bool { return newerFirst(out[i].ItemRef, out[j].ItemRef) })
	}

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}

// byScore orders by score descending; unscored items sort last. Equal
// scores prefer the earlier publication, dated before undated.
func byScore(a, b domain.ItemRef) bool {
	switch {
	case a.Score == nil && b.Score == nil:
		return false
	case a.Score == nil:
		return false
	case b.Score == nil:
		return true
	case *a.Score != *b.Score:
		return *a.Score > *b.Score
	}
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	}
	return a.PublishedAt.Before(*b.PublishedAt)
}

// newerFirst orders by publication descending; undated items sort last.
func newerFirst(a, b domain.ItemRef) bool {
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	}
	return a.PublishedAt.After(*b.PublishedAt)
}
