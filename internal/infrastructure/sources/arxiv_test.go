package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBriefing/internal/config"
	"DailyBriefing/internal/domain"
)

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <entry>
    <id>http://arxiv.org/abs/2501.00001v1</id>
    <published>2025-11-08T10:00:00Z</published>
    <title>Scaling Agents</title>
    <summary>  We study how agents scale.
      It works.</summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2501.00001v1" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2501.00002v1</id>
    <published>2025-11-07T10:00:00Z</published>
    <title>Second Paper</title>
    <summary>Another abstract.</summary>
    <link href="http://arxiv.org/abs/2501.00002v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://export.arxiv.org/list/cs.AI/pastweek", 200, 100)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "export.arxiv.org", parsed.Host)
	assert.Equal(t, "200", parsed.Query().Get("skip"))
	assert.Equal(t, "100", parsed.Query().Get("show"))
}

func TestParseListingEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 8 Nov 2025</div>
	    <div class="list-title mathjax">Title: Sample Title</div>
	    <div class="list-authors"><a href="/a/x">Grace Hopper</a></div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	paper, ok := parseListingEntry(doc.Find("dt").First(), doc.Find("dd").First())
	require.True(t, ok)
	assert.Equal(t, "arXiv:1234.56789", paper.ID)
	assert.Equal(t, "Sample Title", paper.Title)
	assert.Equal(t, "Sample abstract text.", paper.Abstract)
	assert.Equal(t, "https://arxiv.org/abs/1234.56789", paper.URL)
	assert.Equal(t, []string{"Grace Hopper"}, paper.Authors)
	assert.Equal(t, "2025-11-08", paper.PublishedAt.Format("2006-01-02"))
}

func TestArxivAdapterQueriesAPI(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(atomFixture))
	}))
	defer server.Close()

	adapter, err := NewArxivAdapter(config.SourceConfig{
		ID:       "arxiv-ai",
		URL:      server.URL + "/api/query",
		MaxItems: 1,
		Options:  map[string]string{"searchQuery": "cat:cs.LG"},
	}, server.Client(), nil)
	require.NoError(t, err)

	items, err := adapter.Fetch(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, "cat:cs.LG", gotQuery.Get("search_query"))
	assert.Equal(t, "1", gotQuery.Get("max_results"))
	assert.Equal(t, "0", gotQuery.Get("start"))

	require.Len(t, items, 1)
	assert.Equal(t, "arxiv-ai", items[0].SourceID)
	paper, ok := items[0].Payload.(domain.PaperEntry)
	require.True(t, ok)
	assert.Equal(t, "Scaling Agents", paper.Title)
	assert.Equal(t, "http://arxiv.org/abs/2501.00001v1", paper.URL)
	assert.Contains(t, paper.Abstract, "agents scale")
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, paper.Authors)
}

func TestArxivAdapterListingMode(t *testing.T) {
	t.Parallel()

	targetDay := time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/cs.AI", r.URL.Path)
		_, _ = w.Write([]byte(`
		<dl>
		  <dt><span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span></dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Fresh Article</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt><span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span></dt>
		  <dd>
		    <div class="list-date">Date: 7 Nov 2025</div>
		    <div class="list-title mathjax">Title: Old Article</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	adapter, err := NewArxivAdapter(config.SourceConfig{
		ID:       "arxiv-list",
		URL:      server.URL + "/list/{category}",
		MaxItems: 10,
		Options:  map[string]string{"mode": "listing", "categories": "cs.AI"},
	}, server.Client(), nil)
	require.NoError(t, err)
	adapter.pageSize = 10

	items, err := adapter.Fetch(context.Background(), targetDay)
	require.NoError(t, err)
	require.Len(t, items, 1)

	paper := items[0].Payload.(domain.PaperEntry)
	assert.Equal(t, "arXiv:2501.00001", paper.ID)
	assert.Equal(t, "brand new.", paper.Abstract)
}

func TestArxivAdapterWrapsFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter, err := NewArxivAdapter(config.SourceConfig{ID: "arxiv-ai", URL: server.URL}, server.Client(), nil)
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background(), time.Now())
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "arxiv-ai", fetchErr.SourceID)
	assert.Contains(t, err.Error(), "429")
}

func TestNewArxivAdapterRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := NewArxivAdapter(config.SourceConfig{ID: "x", Options: map[string]string{"mode": "scrape"}}, nil, nil)
	assert.Error(t, err)
}
