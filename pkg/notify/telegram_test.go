package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

func newTestTelegram(apiBase string, sleeps *[]time.Duration) *Telegram {
	return NewTelegram(TelegramParams{
		Token:   "test-token",
		ChatID:  "42",
		APIBase: apiBase,
		Sleep: func(d time.Duration) {
			*sleeps = append(*sleeps, d)
		},
	})
}

func TestTelegram_DeliverOK(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer ts.Close()

	var sleeps []time.Duration
	tg := newTestTelegram(ts.URL, &sleeps)

	assert.True(t, tg.Deliver(context.Background(), "hello"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeps)
}

func TestTelegram_RateLimitedThenOK(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"ok":false,"parameters":{"retry_after":5}}`)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer ts.Close()

	var sleeps []time.Duration
	tg := newTestTelegram(ts.URL, &sleeps)

	assert.True(t, tg.Deliver(context.Background(), "hello"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "exactly 3 attempts")

	// suggested 5s plus 2s per attempt index
	require.Len(t, sleeps, 2)
	assert.Equal(t, 5*time.Second, sleeps[0])
	assert.Equal(t, 7*time.Second, sleeps[1])
}

func TestTelegram_RetryWaitCapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"ok":false,"parameters":{"retry_after":120}}`)
	}))
	defer ts.Close()

	var sleeps []time.Duration
	tg := newTestTelegram(ts.URL, &sleeps)

	assert.False(t, tg.Deliver(context.Background(), "hello"))
	require.Len(t, sleeps, maxAttempts)
	for _, s := range sleeps {
		assert.Equal(t, maxRetryWait, s)
	}
}

func TestTelegram_ExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	var sleeps []time.Duration
	tg := newTestTelegram(ts.URL, &sleeps)

	assert.False(t, tg.Deliver(context.Background(), "hello"))
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))

	// flat incremental backoff between attempts
	require.Len(t, sleeps, maxAttempts)
	assert.Equal(t, flatBackoff, sleeps[0])
	assert.Equal(t, 2*flatBackoff, sleeps[1])
}

func TestTelegram_DryRun(t *testing.T) {
	tg := NewTelegram(TelegramParams{Token: "t", ChatID: "c", DryRun: true, APIBase: "http://127.0.0.1:1"})
	assert.True(t, tg.Deliver(context.Background(), "hello"), "dry-run short-circuits without network")
}

func TestTelegram_MissingCredentials(t *testing.T) {
	tg := NewTelegram(TelegramParams{APIBase: "http://127.0.0.1:1"})
	assert.False(t, tg.Deliver(context.Background(), "hello"))
}

func TestDigest_Write(t *testing.T) {
	dir := t.TempDir()
	digest, err := NewDigest(dir)
	require.NoError(t, err)

	item := domain.Item{Source: "Test Source", Title: "A headline", URL: "https://example.com/a"}
	require.NoError(t, digest.Write(item))
	require.NoError(t, digest.Write(item))

	data, err := os.ReadFile(digest.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"- **A headline** — [Test Source](https://example.com/a)\n- **A headline** — [Test Source](https://example.com/a)\n",
		string(data))
}
