package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
	"github.com/iraqrahomi/iraqnews-bot/pkg/fingerprint"
)

// FeedFetcher pulls items from RSS/Atom sources
type FeedFetcher struct {
	client   *Client
	enricher *Enricher // optional, nil disables enrichment
	maxItems int
}

// NewFeedFetcher creates a feed fetcher with a per-source item cap.
// A non-nil enricher enables best-effort full-text extraction for items
// whose feed summary is short.
func NewFeedFetcher(client *Client, enricher *Enricher, maxItems int) *FeedFetcher {
	if maxItems <= 0 {
		maxItems = 30
	}
	return &FeedFetcher{client: client, enricher: enricher, maxItems: maxItems}
}

// Fetch retrieves and parses the source feed, returning normalized items
func (f *FeedFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	body, err := f.client.Get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	entries := parsed.Items
	if len(entries) > f.maxItems {
		entries = entries[:f.maxItems]
	}

	items := make([]domain.Item, 0, len(entries))
	for _, e := range entries {
		published := e.PublishedParsed
		if published == nil {
			published = e.UpdatedParsed
		}

		item := domain.Item{
			Source:      src.Name,
			Title:       normalizeTitle(e.Title),
			URL:         fingerprint.CanonicalURL(e.Link),
			PublishedAt: normalizeTime(published),
			Summary:     normalizeSummary(e.Description),
		}

		item.Summary = f.enrich(ctx, item.URL, item.Summary)
		items = append(items, item)
	}

	return items, nil
}

// enrich tries to replace a thin summary with extracted article text;
// any failure keeps the summary as is.
func (f *FeedFetcher) enrich(ctx context.Context, url, summary string) string {
	if f.enricher == nil || url == "" || utf8.RuneCountInString(summary) >= minEnrichedLen {
		return summary
	}

	full, err := f.enricher.Extract(ctx, url)
	if err != nil {
		lgr.Printf("[DEBUG] enrichment failed for %s: %v", url, err)
		return summary
	}
	return normalizeSummary(full)
}
