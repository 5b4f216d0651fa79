package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
)

func TestHackerNewsAdapterFetchesTopStories(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[11, 12, 13, 14]`))
	})
	mux.HandleFunc("/item/11.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":11,"title":"Go 2","url":"https://go.dev","score":300,"time":1731060000}`))
	})
	mux.HandleFunc("/item/12.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/item/13.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":13,"title":"Ask HN: anything","score":50,"time":1731060100}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter, err := NewHackerNewsAdapter(config.SourceConfig{ID: "hn", URL: server.URL, MaxItems: 3}, server.Client(), nil)
	require.NoError(t, err)

	items, err := adapter.Fetch(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0].Payload.(domain.StoryEntry)
	assert.Equal(t, int64(11), first.ID)
	assert.Equal(t, "https://go.dev", first.URL)
	assert.Equal(t, 300, first.Score)
	assert.Equal(t, "https://news.ycombinator.com/item?id=11", first.DiscussionURL)

	second := items[1].Payload.(domain.StoryEntry)
	assert.Equal(t, int64(13), second.ID)
	assert.Empty(t, second.URL)
}

func TestHackerNewsAdapterFailsWhenRankingUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	adapter, err := NewHackerNewsAdapter(config.SourceConfig{ID: "hn", URL: server.URL}, server.Client(), nil)
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background(), time.Now())
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "hn", fetchErr.SourceID)
}

func TestHackerNewsAdapterFailsWhenEveryStoryFails(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1, 2]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	adapter, err := NewHackerNewsAdapter(config.SourceConfig{ID: "hn", URL: server.URL}, server.Client(), nil)
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background(), time.Now())
	assert.Error(t, err)
}
