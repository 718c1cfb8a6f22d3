package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Breaking: First headline</title>
      <link>https://example.com/a?utm_source=rss&amp;id=1</link>
      <description>&lt;p&gt;First   summary&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second headline</title>
      <link>https://example.com/b</link>
      <description>Second summary</description>
    </item>
    <item>
      <title>Third headline</title>
      <link>https://example.com/c</link>
      <description>Third summary</description>
    </item>
  </channel>
</rss>`

func TestFeedFetcher_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSS)
	}))
	defer ts.Close()

	client := NewClient(5*time.Second, 1)
	fetcher := NewFeedFetcher(client, nil, 30)

	items, err := fetcher.Fetch(context.Background(), domain.Source{Name: "test", Kind: domain.KindFeed, URL: ts.URL})
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, "test", first.Source)
	assert.Equal(t, "First headline", first.Title, "boilerplate prefix stripped")
	assert.Equal(t, "https://example.com/a?id=1", first.URL, "tracking param stripped")
	assert.Equal(t, "First summary", first.Summary, "markup stripped, whitespace collapsed")
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, 13, first.PublishedAt.Hour(), "UTC 10:00 is 13:00 at the fixed +3 offset")

	assert.Nil(t, items[1].PublishedAt)
}

func TestFeedFetcher_ItemCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, testRSS)
	}))
	defer ts.Close()

	fetcher := NewFeedFetcher(NewClient(5*time.Second, 1), nil, 2)
	items, err := fetcher.Fetch(context.Background(), domain.Source{Name: "test", URL: ts.URL})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFeedFetcher_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	fetcher := NewFeedFetcher(NewClient(5*time.Second, 1), nil, 30)
	_, err := fetcher.Fetch(context.Background(), domain.Source{Name: "test", URL: ts.URL})
	assert.Error(t, err)
}

func TestScrapeFetcher_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<div class="news"><a href="/articles/1">First scraped headline</a></div>
			<div class="news"><a href="%s/articles/2">Second scraped headline</a></div>
			<div class="other"><a href="/ignored">Ignored link</a></div>
		</body></html>`, ts.URL)
	})
	mux.HandleFunc("/articles/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><article>Body of %s with enough text.</article></body></html>`, r.URL.Path)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	fetcher := NewScrapeFetcher(NewClient(5*time.Second, 1), 30)
	src := domain.Source{
		Name:            "scrape-src",
		Kind:            domain.KindScrape,
		URL:             ts.URL + "/",
		ListSelector:    ".news a",
		ContentSelector: "article",
	}

	items, err := fetcher.Fetch(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "First scraped headline", items[0].Title)
	assert.Equal(t, ts.URL+"/articles/1", items[0].URL, "relative href resolved")
	assert.Contains(t, items[0].Summary, "Body of /articles/1")
	assert.Equal(t, ts.URL+"/articles/2", items[1].URL, "absolute href kept")
}

func TestScrapeFetcher_ArticleFailureDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/gone">Headline with dead article</a></body></html>`)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher := NewScrapeFetcher(NewClient(5*time.Second, 1), 30)
	items, err := fetcher.Fetch(context.Background(), domain.Source{Name: "s", URL: ts.URL + "/"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Headline with dead article", items[0].Title)
	assert.Empty(t, items[0].Summary, "article failure degrades to empty summary")
}

func TestEnricher_ShortArabicContentRejected(t *testing.T) {
	// ~150 runes of Arabic is over 200 bytes; the length bar counts runes,
	// so this must still be rejected as too short
	para := strings.Repeat("خبر محلي ", 17)
	require.Less(t, utf8.RuneCountInString(para), minEnrichedLen)
	require.GreaterOrEqual(t, len(para), minEnrichedLen)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><article><p>%s</p></article></body></html>`, para)
	}))
	defer ts.Close()

	enricher := NewEnricher(NewClient(5*time.Second, 1))
	_, err := enricher.Extract(context.Background(), ts.URL)
	assert.Error(t, err)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer ts.Close()

	client := NewClient(5*time.Second, 3)
	body, err := client.Get(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_ExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(5*time.Second, 2)
	_, err := client.Get(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNormalize(t *testing.T) {
	t.Run("title prefixes", func(t *testing.T) {
		assert.Equal(t, "headline", normalizeTitle("عاجل: headline"))
		assert.Equal(t, "headline", normalizeTitle("بالصور - headline"))
		assert.Equal(t, "headline", normalizeTitle("Video: headline"))
		assert.Equal(t, "plain headline", normalizeTitle("  plain   headline "))
	})

	t.Run("summary strip and cap", func(t *testing.T) {
		assert.Equal(t, "a b", normalizeSummary("<p>a</p> <b>b</b>"))

		long := make([]rune, 2000)
		for i := range long {
			long[i] = 'x'
		}
		assert.Len(t, []rune(normalizeSummary(string(long))), summaryMaxRunes)
	})

	t.Run("entities unescaped", func(t *testing.T) {
		assert.Equal(t, `quoted "text" & more`, cleanText("quoted &quot;text&quot; &amp; more"))
	})
}
