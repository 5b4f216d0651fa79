package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/config"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var path, chat, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		path = r.URL.Path
		chat = r.PostForm.Get("chat_id")
		text = r.PostForm.Get("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "tok", ChatID: "42", APIBase: srv.URL + "/"})
	require.NoError(t, n.PublishDigest(context.Background(), "Here's your daily briefing"))

	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "42", chat)
	assert.Equal(t, "Here's your daily briefing", text)
}

func TestPublishDigestClipsLongMessages(t *testing.T) {
	t.Parallel()

	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		text = r.PostForm.Get("text")
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "tok", ChatID: "42", APIBase: srv.URL})
	require.NoError(t, n.PublishDigest(context.Background(), strings.Repeat("é", 5000)))
	assert.Equal(t, maxMessageRunes, utf8.RuneCountInString(text))
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	assert.Error(t, NewNotifier(config.TelegramConfig{}).PublishDigest(context.Background(), "x"))
	assert.False(t, NewNotifier(config.TelegramConfig{BotToken: "tok"}).Configured())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "bad", ChatID: "1", APIBase: srv.URL})
	assert.ErrorContains(t, n.PublishDigest(context.Background(), "x"), "401")
}
