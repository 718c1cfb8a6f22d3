// Package fetcher retrieves candidate items from configured sources.
// Two strategies implement the Fetcher contract: feed (RSS/Atom) and
// scrape (HTML listing pages). Both signal transport/parse failure by
// returning an error; an empty result with a nil error is the caller's
// "zero items" signal, which is a distinct, softer failure class.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// Fetcher is the polymorphic fetch boundary. New source kinds are added
// by adding implementations, not by branching in the orchestrator.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error)
}

// Client is the shared HTTP layer for all fetch strategies: rotating
// browser identity, per-attempt timeout and bounded backoff with jitter.
type Client struct {
	httpClient *http.Client
	attempts   int
}

// NewClient creates a fetch HTTP client with the given per-attempt timeout
// and attempt budget.
func NewClient(timeout time.Duration, attempts int) *Client {
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		attempts: attempts,
	}
}

// Get fetches a URL with retries; the last error surfaces after the
// attempt budget is exhausted.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	retrier := repeater.NewBackoff(c.attempts, time.Second,
		repeater.WithMaxDelay(5*time.Second), repeater.WithJitter(0.5))

	err := retrier.Do(ctx, func() error {
		data, err := c.getOnce(ctx, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

// getOnce performs a single HTTP GET attempt
func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	addBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
