package domain

import "time"

// DateKeyLayout formats calendar dates used as briefing identity.
const DateKeyLayout = "2006-01-02"

// ItemRef is the part of a normalized item carried into the briefing.
type ItemRef struct {
	SourceID      string     `json:"source_id,omitempty"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Score         *float64   `json:"score,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Authors       []string   `json:"authors,omitempty"`
	FeedName      string     `json:"feed_name,omitempty"`
	DiscussionURL string     `json:"discussion_url,omitempty"`
}

// Summary is the summarized rendition of a single item. WasSummarized is
// false when the body passed through unchanged or had to be truncated.
type Summary struct {
	ItemRef
	Text          string `json:"summary"`
	WasSummarized bool   `json:"was_summarized"`
}

// Section is a named, ordered list of summaries.
type Section struct {
	Name  string    `json:"name"`
	Items []Summary `json:"items"`
}

// BriefingDocument is the compiled digest for one calendar day. DateKey is
// its sole identity; only the compiler builds real documents.
type BriefingDocument struct {
	DateKey        string    `json:"date_key"`
	Sections       []Section `json:"sections"`
	GeneratedAt    time.Time `json:"generated_at"`
	Degraded       bool      `json:"degraded"`
	MissingSources []string  `json:"missing_sources"`
	Notice         string    `json:"notice,omitempty"`
}

// DateKey formats a day into the briefing identity string.
func DateKey(day time.Time) string {
	return day.Format(DateKeyLayout)
}

// ParseDateKey parses a YYYY-MM-DD key in the given location.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateKeyLayout, key, loc)
}

// Ref projects the item onto the fields kept in the briefing.
func (n NormalizedItem) Ref() ItemRef {
	return ItemRef{
		SourceID:      n.SourceID,
		Title:         n.Title,
		URL:           n.URL,
		Score:         n.Score,
		PublishedAt:   n.PublishedAt,
		Authors:       n.Authors,
		FeedName:      n.FeedName,
		DiscussionURL: n.DiscussionURL,
	}
}
