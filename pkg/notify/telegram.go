// Package notify delivers formatted messages to the outbound channel and
// routes undeliverable items to a local fallback sink so nothing accepted
// is silently lost.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
)

// retry tuning for the outbound channel
const (
	maxAttempts       = 4
	defaultRetryAfter = 2 * time.Second
	maxRetryWait      = 30 * time.Second
	retryIncrement    = 2 * time.Second
	flatBackoff       = 1500 * time.Millisecond
)

// Telegram sends messages to a telegram chat with rate-limit-aware retry
type Telegram struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	dryRun  bool
	sleep   func(time.Duration)
}

// TelegramParams configures the gateway
type TelegramParams struct {
	Token   string
	ChatID  string
	Timeout time.Duration
	DryRun  bool
	APIBase string               // defaults to the public telegram API, tests override
	Sleep   func(time.Duration)  // defaults to time.Sleep, tests override
}

// NewTelegram creates a telegram delivery gateway
func NewTelegram(p TelegramParams) *Telegram {
	if p.Timeout == 0 {
		p.Timeout = 20 * time.Second
	}
	if p.APIBase == "" {
		p.APIBase = "https://api.telegram.org"
	}
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	return &Telegram{
		token:   p.Token,
		chatID:  p.ChatID,
		apiBase: p.APIBase,
		client:  &http.Client{Timeout: p.Timeout},
		dryRun:  p.DryRun,
		sleep:   p.Sleep,
	}
}

// tgError is the relevant subset of a telegram error response
type tgError struct {
	Parameters struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Deliver posts the message to the channel. It retries on 429 honoring the
// server-suggested delay (capped) and on other failures with a flat
// incremental backoff, up to the attempt budget. A false return means the
// message was not delivered and the caller must use the fallback sink.
func (t *Telegram) Deliver(ctx context.Context, text string) bool {
	if t.token == "" || t.chatID == "" {
		return false
	}
	if t.dryRun {
		lgr.Printf("[INFO] dry-run: telegram send skipped")
		return true
	}

	api := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		status, body, err := t.post(ctx, api, text)
		if err != nil {
			lgr.Printf("[WARN] telegram request failed (attempt %d/%d): %v", attempt+1, maxAttempts, err)
			t.sleep(flatBackoff * time.Duration(attempt+1))
			continue
		}

		if status == http.StatusOK {
			return true
		}

		if status == http.StatusTooManyRequests {
			wait := t.retryAfterWait(body, attempt)
			lgr.Printf("[WARN] telegram 429, waiting %v before retry", wait)
			t.sleep(wait)
			continue
		}

		lgr.Printf("[ERROR] telegram error: status %d, body %s", status, string(body))
		t.sleep(flatBackoff * time.Duration(attempt+1))
	}

	return false
}

// retryAfterWait computes the 429 wait: server-suggested delay (or a small
// default) plus a per-attempt increment, capped.
func (t *Telegram) retryAfterWait(body []byte, attempt int) time.Duration {
	suggested := defaultRetryAfter
	var e tgError
	if err := json.Unmarshal(body, &e); err == nil && e.Parameters.RetryAfter > 0 {
		suggested = time.Duration(e.Parameters.RetryAfter) * time.Second
	}

	wait := suggested + time.Duration(attempt)*retryIncrement
	if wait > maxRetryWait {
		wait = maxRetryWait
	}
	return wait
}

// post performs one sendMessage attempt
func (t *Telegram) post(ctx context.Context, api, text string) (status int, body []byte, err error) {
	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, api, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
