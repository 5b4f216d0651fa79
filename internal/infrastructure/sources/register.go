package sources

import (
	"log/slog"
	"net/http"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
	"DailyBriefing/internal/source"
)

// Register installs the arxiv, hackernews and rss adapter families.
func Register(reg *source.Registry, log *slog.Logger) {
	reg.Register(domain.KindArxiv, func(cfg config.SourceConfig, client *http.Client) (ports.SourceAdapter, error) {
		return NewArxivAdapter(cfg, client, componentLogger(log, "source.arxiv"))
	})
	reg.Register(domain.KindHackerNews, func(cfg config.SourceConfig, client *http.Client) (ports.SourceAdapter, error) {
		return NewHackerNewsAdapter(cfg, client, componentLogger(log, "source.hackernews"))
	})
	reg.Register(domain.KindRSS, func(cfg config.SourceConfig, client *http.Client) (ports.SourceAdapter, error) {
		return NewFeedAdapter(cfg, client, componentLogger(log, "source.rss"))
	})
}

func componentLogger(log *slog.Logger, component string) *slog.Logger {
	if log == nil {
		return nil
	}
	return log.With("component", component)
}
