package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pkgz/lgr"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
	"github.com/iraqrahomi/iraqnews-bot/pkg/fingerprint"
)

// ScrapeFetcher pulls items from plain HTML listing pages for sources
// without a feed. The list selector picks anchor elements on the listing
// page; the content selector picks the article body on each linked page.
type ScrapeFetcher struct {
	client   *Client
	maxItems int
}

// NewScrapeFetcher creates a scrape fetcher with a per-source item cap
func NewScrapeFetcher(client *Client, maxItems int) *ScrapeFetcher {
	if maxItems <= 0 {
		maxItems = 30
	}
	return &ScrapeFetcher{client: client, maxItems: maxItems}
}

// Fetch loads the listing page and follows each link for article content.
// Per-article fetch failures degrade to an empty summary; only a failure
// to load or parse the listing page itself fails the source.
func (s *ScrapeFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	body, err := s.client.Get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", src.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", src.Name, err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse source url %s: %w", src.Name, err)
	}

	listSelector := src.ListSelector
	if listSelector == "" {
		listSelector = "a"
	}

	items := make([]domain.Item, 0, s.maxItems)
	doc.Find(listSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(items) >= s.maxItems {
			return false
		}

		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}

		link := resolveURL(base, href)
		if link == "" {
			return true
		}

		items = append(items, domain.Item{
			Source:  src.Name,
			Title:   normalizeTitle(sel.Text()),
			URL:     fingerprint.CanonicalURL(link),
			Summary: s.fetchArticle(ctx, src, link),
		})
		return true
	})

	return items, nil
}

// fetchArticle pulls the article page and extracts the content node text
func (s *ScrapeFetcher) fetchArticle(ctx context.Context, src domain.Source, link string) string {
	body, err := s.client.Get(ctx, link)
	if err != nil {
		lgr.Printf("[WARN] content fetch failed for %s: %v", link, err)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		lgr.Printf("[WARN] content parse failed for %s: %v", link, err)
		return ""
	}

	contentSelector := src.ContentSelector
	if contentSelector == "" {
		contentSelector = "article"
	}

	node := doc.Find(contentSelector).First()
	if node.Length() == 0 {
		node = doc.Selection
	}
	return normalizeSummary(node.Text())
}

// resolveURL resolves a possibly relative href against the listing page
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
