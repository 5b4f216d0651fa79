package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

const (
	arxivBaseURL     = "https://arxiv.org"
	arxivListingURL  = "https://arxiv.org/list/%s/pastweek"
	arxivModeAPI     = "api"
	arxivModeListing = "listing"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivAdapter pulls research papers either from the Atom query API or by
// crawling category listing pages.
type ArxivAdapter struct {
	id          string
	endpoint    string
	mode        string
	searchQuery string
	start       int
	maxResults  int
	sortBy      string
	sortOrder   string
	categories  []string
	windowDays  int
	pageSize    int
	client      *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.SourceAdapter = (*ArxivAdapter)(nil)

// NewArxivAdapter reads adapter-level parameters from the source options.
func NewArxivAdapter(cfg config.SourceConfig, client *http.Client, log *slog.Logger) (*ArxivAdapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	opts := cfg.Options
	a := &ArxivAdapter{
		id:          cfg.ID,
		endpoint:    cfg.URL,
		mode:        optString(opts, "mode", arxivModeAPI),
		searchQuery: optString(opts, "searchQuery", "cat:cs.AI"),
		sortBy:      opts["sortBy"],
		sortOrder:   opts["sortOrder"],
		maxResults:  cfg.MaxItems,
		pageSize:    200,
		client:      client,
		logger:      log,
		now:         time.Now,
	}
	if a.maxResults <= 0 {
		a.maxResults = 5
	}

	var err error
	if a.start, err = optInt(opts, "start", 0); err != nil {
		return nil, err
	}
	if a.windowDays, err = optInt(opts, "windowDays", 1); err != nil {
		return nil, err
	}
	if a.windowDays < 1 {
		a.windowDays = 1
	}

	switch a.mode {
	case arxivModeAPI:
		if a.endpoint == "" {
			a.endpoint = "http://export.arxiv.org/api/query"
		}
	case arxivModeListing:
		for _, c := range strings.Split(optString(opts, "categories", "cs.AI"), ",") {
			if c = strings.TrimSpace(c); c != "" {
				a.categories = append(a.categories, c)
			}
		}
		if len(a.categories) == 0 {
			return nil, fmt.Errorf("arxiv listing mode needs at least one category")
		}
	default:
		return nil, fmt.Errorf("unknown arxiv mode %q", a.mode)
	}

	return a, nil
}

// ID identifies the configured source.
func (a *ArxivAdapter) ID() string { return a.id }

// Kind reports the source family.
func (a *ArxivAdapter) Kind() domain.SourceKind { return domain.KindArxiv }

// Fetch returns the papers for day. Any failure is reported as a FetchError.
func (a *ArxivAdapter) Fetch(ctx context.Context, day time.Time) ([]domain.RawItem, error) {
	var (
		entries []domain.PaperEntry
		err     error
	)
	if a.mode == arxivModeListing {
		entries, err = a.scanListings(ctx, day)
	} else {
		entries, err = a.queryAPI(ctx)
	}
	if err != nil {
		return nil, &domain.FetchError{SourceID: a.id, Cause: err}
	}

	fetchedAt := a.now().UTC()
	items := make([]domain.RawItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, domain.RawItem{SourceID: a.id, FetchedAt: fetchedAt, Payload: e})
	}
	a.debug("arxiv fetched", "source", a.id, "mode", a.mode, "count", len(items))
	return items, nil
}

func (a *ArxivAdapter) queryAPI(ctx context.Context) ([]domain.PaperEntry, error) {
	queryURL, err := a.buildQueryURL()
	if err != nil {
		return nil, err
	}

	body, err := getBody(ctx, a.client, queryURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	papers := make([]domain.PaperEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper := domain.PaperEntry{
			ID:       item.GUID,
			Title:    item.Title,
			Abstract: item.Description,
			URL:      item.Link,
		}
		for _, author := range item.Authors {
			if author != nil && author.Name != "" {
				paper.Authors = append(paper.Authors, author.Name)
			}
		}
		if item.PublishedParsed != nil {
			paper.PublishedAt = *item.PublishedParsed
		}
		papers = append(papers, paper)
		if len(papers) == a.maxResults {
			break
		}
	}
	return papers, nil
}

func (a *ArxivAdapter) buildQueryURL() (string, error) {
	parsed, err := url.Parse(a.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid arxiv endpoint %s: %w", a.endpoint, err)
	}
	q := parsed.Query()
	q.Set("search_query", a.searchQuery)
	q.Set("start", strconv.Itoa(a.start))
	q.Set("max_results", strconv.Itoa(a.maxResults))
	if a.sortBy != "" {
		q.Set("sortBy", a.sortBy)
	}
	if a.sortOrder != "" {
		q.Set("sortOrder", a.sortOrder)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// scanListings walks each category listing and keeps entries dated within
// the window ending on day.
func (a *ArxivAdapter) scanListings(ctx context.Context, day time.Time) ([]domain.PaperEntry, error) {
	targetDay := day.UTC().Truncate(24 * time.Hour)
	oldest := targetDay.AddDate(0, 0, -(a.windowDays - 1))
	results := make([]domain.PaperEntry, 0)
	seen := map[string]struct{}{}

	for _, cat := range a.categories {
		base := a.endpoint
		if base == "" {
			base = fmt.Sprintf(arxivListingURL, cat)
		} else {
			base = strings.ReplaceAll(base, "{category}", cat)
		}

		skip := 0
		for {
			pageURL, err := buildPageURL(base, skip, a.pageSize)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat, err)
			}

			doc, err := a.fetchDocument(ctx, pageURL)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", cat, err)
			}

			page, more := a.extractPapers(doc, oldest, targetDay)
			for _, paper := range page {
				if _, ok := seen[paper.ID]; ok {
					continue
				}
				seen[paper.ID] = struct{}{}
				results = append(results, paper)
				if len(results) == a.maxResults {
					return results, nil
				}
			}

			if !more {
				break
			}
			skip += a.pageSize
		}
	}

	return results, nil
}

func (a *ArxivAdapter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := getBody(ctx, a.client, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extractPapers collects entries in [oldest, newest]; the bool is false once
// the listing has moved past the window or the page was short.
func (a *ArxivAdapter) extractPapers(doc *goquery.Document, oldest, newest time.Time) ([]domain.PaperEntry, bool) {
	var (
		collected    []domain.PaperEntry
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		processed++
		paper, ok := parseListingEntry(dt, dt.Next())
		if !ok {
			return true
		}

		paperDay := paper.PublishedAt.UTC().Truncate(24 * time.Hour)
		if paperDay.Before(oldest) {
			continueScan = false
			return false
		}
		if !paperDay.After(newest) {
			collected = append(collected, paper)
		}
		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}
	return collected, continueScan
}

// parseListingEntry reads one dt/dd pair; entries without a parsable date
// are skipped.
func parseListingEntry(dt, dd *goquery.Selection) (domain.PaperEntry, bool) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, _ := link.Attr("href")
	id := strings.TrimSpace(link.Text())
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := strings.TrimSpace(dd.Find("p.mathjax").First().Text())
	abstract = strings.TrimSpace(strings.TrimPrefix(abstract, "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}
	match := dateExpr.FindString(dateText)
	if match == "" {
		return domain.PaperEntry{}, false
	}
	published, err := time.Parse("2 Jan 2006", match)
	if err != nil {
		return domain.PaperEntry{}, false
	}

	if id == "" {
		id = href
	}

	return domain.PaperEntry{
		ID:          id,
		Title:       title,
		Abstract:    abstract,
		URL:         href,
		Authors:     authors,
		PublishedAt: published,
	}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (a *ArxivAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func optString(opts map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(opts[key]); v != "" {
		return v
	}
	return fallback
}

func optInt(opts map[string]string, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(opts[key])
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("option %s: %w", key, err)
	}
	return v, nil
}
