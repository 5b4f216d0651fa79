package compile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/domain"
)

var fixedNow = time.Date(2025, 11, 8, 6, 0, 0, 0, time.UTC)

func layout() []SectionSpec {
	return []SectionSpec{
		{Name: "research", Sources: []string{"arxiv"}},
		{Name: "tech-news", Sources: []string{"hn"}},
		{Name: "personal-development", Sources: []string{"zen", "brew"}},
	}
}

func summary(source, title string) domain.Summary {
	return domain.Summary{ItemRef: domain.ItemRef{SourceID: source, Title: title, URL: "https://x/" + title}, Text: title}
}

func TestCompileKeepsDeclaredOrder(t *testing.T) {
	t.Parallel()

	c := New(layout(), func() time.Time { return fixedNow })
	doc, err := c.Compile("2025-11-08", map[string]SourceResult{
		"brew":  {Summaries: []domain.Summary{summary("brew", "b1")}},
		"zen":   {Summaries: []domain.Summary{summary("zen", "z1")}},
		"hn":    {Summaries: []domain.Summary{summary("hn", "h1"), summary("hn", "h2")}},
		"arxiv": {Summaries: []domain.Summary{summary("arxiv", "a1")}},
	})
	require.NoError(t, err)

	require.Len(t, doc.Sections, 3)
	assert.Equal(t, "research", doc.Sections[0].Name)
	assert.Equal(t, "tech-news", doc.Sections[1].Name)
	assert.Equal(t, "personal-development", doc.Sections[2].Name)
	assert.Len(t, doc.Sections[1].Items, 2)
	assert.Equal(t, "z1", doc.Sections[2].Items[0].Title)
	assert.Equal(t, "b1", doc.Sections[2].Items[1].Title)
	assert.False(t, doc.Degraded)
	assert.Empty(t, doc.MissingSources)
	assert.Equal(t, fixedNow, doc.GeneratedAt)
	assert.Equal(t, "2025-11-08", doc.DateKey)
}

func TestCompileMarksFailedAndAbsentSources(t *testing.T) {
	t.Parallel()

	c := New(layout(), func() time.Time { return fixedNow })
	doc, err := c.Compile("2025-11-08", map[string]SourceResult{
		"arxiv": {Err: &domain.FetchError{SourceID: "arxiv", Cause: errors.New("timeout")}},
		"hn":    {Summaries: []domain.Summary{summary("hn", "h1")}},
		"zen":   {Summaries: nil},
	})
	require.NoError(t, err)

	assert.True(t, doc.Degraded)
	assert.Equal(t, []string{"arxiv", "brew"}, doc.MissingSources)
	assert.NotNil(t, doc.Sections[0].Items)
	assert.Empty(t, doc.Sections[0].Items)
	assert.Len(t, doc.Sections[1].Items, 1)
	assert.Empty(t, doc.Sections[2].Items)
}

func TestCompileRequiresDateKey(t *testing.T) {
	t.Parallel()

	c := New(layout(), nil)
	_, err := c.Compile("", nil)
	var cerr *domain.CompilationError
	require.True(t, errors.As(err, &cerr))

	_, err = c.Compile("08/11/2025", nil)
	assert.True(t, errors.As(err, &cerr))
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	c := New(layout(), func() time.Time { return fixedNow })
	doc := c.Placeholder("2025-11-08", "sorry")

	assert.True(t, doc.Degraded)
	assert.Equal(t, []string{"arxiv", "hn", "zen", "brew"}, doc.MissingSources)
	assert.Equal(t, "sorry", doc.Notice)
	require.Len(t, doc.Sections, 3)
	for _, s := range doc.Sections {
		assert.Empty(t, s.Items)
	}
}

func TestSample(t *testing.T) {
	t.Parallel()

	doc := New(layout(), func() time.Time { return fixedNow }).Sample("2025-11-08")
	assert.False(t, doc.Degraded)
	for _, s := range doc.Sections {
		require.Len(t, s.Items, 1)
		assert.NotEmpty(t, s.Items[0].URL)
	}
}
