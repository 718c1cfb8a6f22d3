package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/markusmobius/go-trafilatura"
)

// minEnrichedLen is the minimum extracted length in runes worth preferring
// over the feed-supplied summary. Counted in runes on both sides so Arabic
// text is held to the same bar as Latin.
const minEnrichedLen = 200

// Enricher pulls fuller article text for items whose feed summary is thin.
// It is strictly best-effort: every failure degrades to the shorter text.
type Enricher struct {
	client *Client
}

// NewEnricher creates an enricher sharing the fetch HTTP client
func NewEnricher(client *Client) *Enricher {
	return &Enricher{client: client}
}

// Extract downloads the article page and extracts its main text content
func (e *Enricher) Extract(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	body, err := e.client.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeImages:   false,
		IncludeLinks:    false,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), opts)
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", rawURL, err)
	}
	if result == nil {
		return "", fmt.Errorf("no content extracted from %s", rawURL)
	}

	content := strings.TrimSpace(result.ContentText)
	if utf8.RuneCountInString(content) < minEnrichedLen {
		return "", fmt.Errorf("extracted content too short for %s", rawURL)
	}
	return content, nil
}
