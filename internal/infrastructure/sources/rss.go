package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const defaultFeedItems = 3

// FeedAdapter reads one RSS or Atom feed.
type FeedAdapter struct {
	id       string
	name     string
	url      string
	maxItems int
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.SourceAdapter = (*FeedAdapter)(nil)

// NewFeedAdapter builds a feed adapter; MaxItems caps entries per fetch.
func NewFeedAdapter(cfg config.SourceConfig, client *http.Client, log *slog.Logger) (*FeedAdapter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed %s has no url", cfg.ID)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	n := cfg.MaxItems
	if n <= 0 {
		n = defaultFeedItems
	}
	return &FeedAdapter{
		id:       cfg.ID,
		name:     cfg.Name,
		url:      cfg.URL,
		maxItems: n,
		client:   client,
		logger:   log,
		now:      time.Now,
	}, nil
}

// ID identifies the configured source.
func (f *FeedAdapter) ID() string { return f.id }

// Kind reports the source family.
func (f *FeedAdapter) Kind() domain.SourceKind { return domain.KindRSS }

// Fetch downloads and parses the feed, keeping the first entries.
func (f *FeedAdapter) Fetch(ctx context.Context, _ time.Time) ([]domain.RawItem, error) {
	body, err := getBody(ctx, f.client, f.url)
	if err != nil {
		return nil, &domain.FetchError{SourceID: f.id, Cause: err}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.FetchError{SourceID: f.id, Cause: fmt.Errorf("parse feed: %w", err)}
	}

	name := f.name
	if name == "" {
		name = feed.Title
	}

	fetchedAt := f.now().UTC()
	items := make([]domain.RawItem, 0, f.maxItems)
	for _, entry := range feed.Items {
		if len(items) == f.maxItems {
			break
		}
		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}
		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}
		items = append(items, domain.RawItem{
			SourceID:  f.id,
			FetchedAt: fetchedAt,
			Payload: domain.FeedEntry{
				FeedName:    name,
				Title:       entry.Title,
				Link:        entry.Link,
				Summary:     summary,
				PublishedAt: published,
			},
		})
	}

	if f.logger != nil {
		f.logger.Debug("feed fetched", "source", f.id, "feed", name, "count", len(items))
	}
	return items, nil
}
