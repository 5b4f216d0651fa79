package domain

import "time"

// SourceKind enumerates the supported source families.
type SourceKind string

const (
	KindArxiv      SourceKind = "arxiv"
	KindHackerNews SourceKind = "hackernews"
	KindRSS        SourceKind = "rss"
)

// RawItem is a source payload as fetched. Payload holds one of PaperEntry,
// StoryEntry or FeedEntry depending on the adapter family.
type RawItem struct {
	SourceID  string
	FetchedAt time.Time
	Payload   any
}

// PaperEntry is the native shape of a research-paper listing entry.
type PaperEntry struct {
	ID          string
	Title       string
	Abstract    string
	URL         string
	Authors     []string
	PublishedAt time.Time
}

// StoryEntry is the native shape of a ranked-link aggregator story.
type StoryEntry struct {
	ID            int64
	Title         string
	URL           string
	Score         int
	Time          int64
	DiscussionURL string
}

// FeedEntry is the native shape of a generic RSS/Atom entry.
type FeedEntry struct {
	FeedName    string
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time
}

// NormalizedItem is the common item representation shared by every source.
// Title and URL are always non-empty.
type NormalizedItem struct {
	SourceID      string
	Title         string
	URL           string
	BodyText      string
	Score         *float64
	PublishedAt   *time.Time
	Authors       []string
	FeedName      string
	DiscussionURL string
}
