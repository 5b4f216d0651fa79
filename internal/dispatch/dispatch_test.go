package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
)

func briefing() domain.BriefingDocument {
	score := 321.0
	paper := func(title, text string) domain.Summary {
		return domain.Summary{
			ItemRef: domain.ItemRef{SourceID: "arxiv", Title: title, URL: "https://arxiv.org/abs/" + title, Authors: []string{"Ada", "Alan"}},
			Text:    text,
		}
	}
	return domain.BriefingDocument{
		DateKey: "2025-11-08",
		Sections: []domain.Section{
			{Name: "research", Items: []domain.Summary{
				paper("Scaling", "Bigger is better. Mostly."),
				paper("Sparsity", "Fewer weights."),
				paper("Agents", "Tools help."),
				paper("Fourth", "Never spoken."),
			}},
			{Name: "tech-news", Items: []domain.Summary{{
				ItemRef: domain.ItemRef{SourceID: "hn", Title: "Go 2 <released>", URL: "https://go.dev",
					Score: &score, DiscussionURL: "https://news.ycombinator.com/item?id=7"},
			}}},
			{Name: "personal-development", Items: []domain.Summary{}},
		},
		MissingSources: []string{"zen"},
		Degraded:       true,
	}
}

func TestVoiceRender(t *testing.T) {
	t.Parallel()

	speech := NewVoiceRenderer(nil).Render(briefing())

	assert.True(t, strings.HasPrefix(speech.Text, "Here's your daily briefing for Saturday, November 08, 2025.\n\n"))
	assert.Contains(t, speech.Text, "From AI and Machine Learning research:\n1. Scaling. Bigger is better.\n2. Sparsity. Fewer weights.\n3. Agents. Tools help.\n")
	assert.NotContains(t, speech.Text, "Fourth")
	assert.Contains(t, speech.Text, "Top technology stories today:\n1. Go 2 <released>.\n")
	assert.Contains(t, speech.Text, "Articles and insights:\nNo articles available today.\n")
	assert.True(t, strings.HasSuffix(speech.Text, "That concludes your daily briefing."))
	assert.Equal(t, Reprompt, speech.Reprompt)
}

func TestVoiceRenderFeedItemsAndNotice(t *testing.T) {
	t.Parallel()

	doc := domain.BriefingDocument{
		DateKey: "2025-11-08",
		Notice:  "Sorry, nothing today.",
		Sections: []domain.Section{{Name: "personal-development", Items: []domain.Summary{{
			ItemRef: domain.ItemRef{Title: "Breathe.", URL: "https://zen/1", FeedName: "Zen Habits"},
		}}}},
	}
	text := NewVoiceRenderer(nil).Render(doc).Text
	assert.Contains(t, text, "Sorry, nothing today.\n\n")
	assert.Contains(t, text, "1. From Zen Habits: Breathe.\n")
}

func TestEmailRender(t *testing.T) {
	t.Parallel()

	r := NewEmailRenderer(LabelsFromConfig(config.Default().Sections))
	html, err := r.Render(briefing())
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Your Daily Briefing for Saturday, November 08, 2025</h1>")
	assert.Contains(t, html, "<h2>AI/ML Research Papers</h2>")
	assert.Contains(t, html, `<a href="https://arxiv.org/abs/Scaling">Scaling</a>`)
	assert.Contains(t, html, "Authors: Ada, Alan")
	assert.Contains(t, html, `Score: 321 | <a href="https://news.ycombinator.com/item?id=7">Comments</a>`)
	assert.Contains(t, html, "Go 2 &lt;released&gt;")
	assert.Contains(t, html, "<p>No articles available today.</p>")
	assert.Equal(t, 3, strings.Count(html, `<div class="section"`))
	assert.Equal(t, "Your Daily Briefing for Saturday, November 08, 2025", r.Subject(briefing()))
	assert.Contains(t, html, "<title>Your Daily Briefing for Saturday, November 08, 2025</title>")
}

func TestLabelsFallBackForUnknownSections(t *testing.T) {
	t.Parallel()

	l := Labels{}.For("world-news")
	assert.Equal(t, "World News", l.Title)
	assert.Equal(t, "World News:", l.Spoken)
	assert.Equal(t, "Nothing new in world news today.", l.Empty)

	assert.Equal(t, "not-a-date", LongDate("not-a-date"))
}

type fixedRetriever struct{ asked []string }

func (f *fixedRetriever) Retrieve(_ context.Context, key string) domain.BriefingDocument {
	f.asked = append(f.asked, key)
	doc := briefing()
	if key != "" {
		doc.DateKey = key
	}
	return doc
}

func TestVoiceRouterRoutes(t *testing.T) {
	t.Parallel()

	retriever := &fixedRetriever{}
	router := NewVoiceRouter(retriever, NewVoiceRenderer(nil), nil)
	ctx := context.Background()

	launch := router.Dispatch(ctx, NewVoiceRequest(RequestLaunch, ""))
	assert.Contains(t, launch.Speech, "Here's your daily briefing")
	assert.Equal(t, Reprompt, launch.Reprompt)
	assert.False(t, launch.EndSession)

	var dated VoiceRequest
	require.NoError(t, json.Unmarshal([]byte(`{"request":{"type":"IntentRequest","intent":{"name":"GetBriefingIntent","slots":{"date":{"value":"2025-11-01"}}}}}`), &dated))
	resp := router.Dispatch(ctx, dated)
	assert.Contains(t, resp.Speech, "November 01, 2025")
	assert.Equal(t, []string{"", "2025-11-01"}, retriever.asked)

	help := router.Dispatch(ctx, NewVoiceRequest(RequestIntent, IntentHelp))
	assert.Equal(t, helpSpeech, help.Speech)

	stop := router.Dispatch(ctx, NewVoiceRequest(RequestIntent, IntentCancel))
	assert.Equal(t, byeSpeech, stop.Speech)
	assert.True(t, stop.EndSession)

	ended := router.Dispatch(ctx, NewVoiceRequest(RequestSessionEnded, ""))
	assert.True(t, ended.EndSession)
	assert.Empty(t, ended.Speech)

	unknown := router.Dispatch(ctx, NewVoiceRequest(RequestIntent, "OrderPizzaIntent"))
	assert.Equal(t, errorSpeech, unknown.Speech)
}

func TestRouterFirstMatchWinsAndErrorsFallBack(t *testing.T) {
	t.Parallel()

	always := func(VoiceRequest) bool { return true }
	router := NewRouter([]Route{
		{Name: "broken", Match: always, Handle: func(context.Context, VoiceRequest) (VoiceResponse, error) {
			return VoiceResponse{}, errors.New("boom")
		}},
		{Name: "shadowed", Match: always, Handle: func(context.Context, VoiceRequest) (VoiceResponse, error) {
			return VoiceResponse{Speech: "unreachable"}, nil
		}},
	}, nil, nil)

	resp := router.Dispatch(context.Background(), NewVoiceRequest(RequestLaunch, ""))
	assert.Equal(t, errorSpeech, resp.Speech)
}

func TestWriteVoicePublication(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "voice_briefing.json")
	now := time.Date(2025, 11, 8, 6, 30, 0, 0, time.UTC)
	require.NoError(t, WriteVoicePublication(path, "2025-11-08", "Here's your daily briefing", now))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var pub VoicePublication
	require.NoError(t, json.Unmarshal(data, &pub))
	assert.Equal(t, VoicePublication{Date: "2025-11-08", BriefingText: "Here's your daily briefing", LastUpdated: "2025-11-08T06:30:00Z"}, pub)
}

func TestDigest(t *testing.T) {
	t.Parallel()

	text := Digest(briefing(), nil)
	assert.True(t, strings.HasPrefix(text, "Daily Briefing for Saturday, November 08, 2025\n"))
	assert.Contains(t, text, "\nAI/ML Research Papers\n1. Scaling\n   https://arxiv.org/abs/Scaling\n")
	assert.Contains(t, text, "4. Fourth\n")
	assert.Contains(t, text, "\nArticles & Insights\nNo articles available today.\n")
	assert.True(t, strings.HasSuffix(text, "Unavailable today: zen\n"))
}
