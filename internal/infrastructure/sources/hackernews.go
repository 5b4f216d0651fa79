package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const (
	hnDefaultBase       = "https://hacker-news.firebaseio.com/v0"
	hnDiscussionURL     = "https://news.ycombinator.com/item?id=%d"
	hnItemFetchParallel = 4
)

// HackerNewsAdapter reads the top-stories ranking and resolves each story.
type HackerNewsAdapter struct {
	id         string
	baseURL    string
	numStories int
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

var _ ports.SourceAdapter = (*HackerNewsAdapter)(nil)

type hnItem struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	Time  int64  `json:"time"`
}

// NewHackerNewsAdapter builds the adapter; MaxItems is the story count.
func NewHackerNewsAdapter(cfg config.SourceConfig, client *http.Client, log *slog.Logger) (*HackerNewsAdapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimSuffix(cfg.URL, "/")
	if base == "" {
		base = hnDefaultBase
	}
	n := cfg.MaxItems
	if n <= 0 {
		n = 5
	}
	return &HackerNewsAdapter{
		id:         cfg.ID,
		baseURL:    base,
		numStories: n,
		client:     client,
		logger:     log,
		now:        time.Now,
	}, nil
}

// ID identifies the configured source.
func (h *HackerNewsAdapter) ID() string { return h.id }

// Kind reports the source family.
func (h *HackerNewsAdapter) Kind() domain.SourceKind { return domain.KindHackerNews }

// Fetch loads the top story ids and then each story. Individual story
// failures are skipped; the fetch fails only if the ranking itself or every
// story could not be loaded.
func (h *HackerNewsAdapter) Fetch(ctx context.Context, _ time.Time) ([]domain.RawItem, error) {
	body, err := getBody(ctx, h.client, h.baseURL+"/topstories.json")
	if err != nil {
		return nil, &domain.FetchError{SourceID: h.id, Cause: err}
	}

	var ids []int64
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, &domain.FetchError{SourceID: h.id, Cause: fmt.Errorf("decode top stories: %w", err)}
	}
	if len(ids) > h.numStories {
		ids = ids[:h.numStories]
	}

	stories := make([]*hnItem, len(ids))
	errs := make([]error, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(hnItemFetchParallel)
	for i, id := range ids {
		g.Go(func() error {
			story, err := h.fetchItem(gCtx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			stories[i] = story
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{SourceID: h.id, Cause: err}
	}

	fetchedAt := h.now().UTC()
	items := make([]domain.RawItem, 0, len(ids))
	var failed int
	for i, story := range stories {
		if story == nil {
			failed++
			h.warn("story fetch failed", "source", h.id, "story", ids[i], "error", errs[i])
			continue
		}
		items = append(items, domain.RawItem{
			SourceID:  h.id,
			FetchedAt: fetchedAt,
			Payload: domain.StoryEntry{
				ID:            story.ID,
				Title:         story.Title,
				URL:           story.URL,
				Score:         story.Score,
				Time:          story.Time,
				DiscussionURL: fmt.Sprintf(hnDiscussionURL, story.ID),
			},
		})
	}

	if len(ids) > 0 && failed == len(ids) {
		return nil, &domain.FetchError{SourceID: h.id, Cause: fmt.Errorf("all %d stories failed: %w", failed, errs[0])}
	}
	return items, nil
}

func (h *HackerNewsAdapter) fetchItem(ctx context.Context, id int64) (*hnItem, error) {
	body, err := getBody(ctx, h.client, fmt.Sprintf("%s/item/%d.json", h.baseURL, id))
	if err != nil {
		return nil, err
	}
	var item hnItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode story %d: %w", id, err)
	}
	if item.ID == 0 {
		item.ID = id
	}
	return &item, nil
}

func (h *HackerNewsAdapter) warn(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}
