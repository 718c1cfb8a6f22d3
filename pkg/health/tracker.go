// Package health implements a minimal per-source circuit breaker.
// Sources that keep failing are disabled for a cooldown window and retried
// automatically once it elapses, without any configuration change.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// disableThreshold is the consecutive-failure count that trips the breaker
const disableThreshold = 3

// Store is the narrow persistence contract the tracker needs
type Store interface {
	Get(ctx context.Context, name string) (*domain.SourceHealth, error)
	Upsert(ctx context.Context, h *domain.SourceHealth) error
}

// Tracker gates whether a source is attempted this cycle and records
// fetch outcomes. It is the only mutator of source health rows.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker over the given store
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// NewTrackerWithClock creates a tracker with an injected clock for tests
func NewTrackerWithClock(store Store, now func() time.Time) *Tracker {
	return &Tracker{store: store, now: now}
}

// IsDisabled reports whether the source is inside a cooldown window.
// Read errors degrade to "not disabled" so a store hiccup never blocks
// the whole cycle.
func (t *Tracker) IsDisabled(ctx context.Context, name string) bool {
	h, err := t.store.Get(ctx, name)
	if err != nil {
		lgr.Printf("[WARN] failed to read health for source %q: %v", name, err)
		return false
	}
	return h.DisabledUntil != nil && h.DisabledUntil.After(t.now())
}

// RecordSuccess resets the source to healthy: zero failures, no
// disablement. Idempotent.
func (t *Tracker) RecordSuccess(ctx context.Context, name string) error {
	if err := t.store.Upsert(ctx, &domain.SourceHealth{Name: name}); err != nil {
		return fmt.Errorf("record success for %q: %w", name, err)
	}
	return nil
}

// RecordFailure increments the consecutive-failure counter. Once the count
// reaches the threshold the source is disabled until now+cooldown; the
// counter keeps climbing past the threshold and a fresh window is computed
// from "now" on every further failure, so a failure burst cannot un-disable
// the source early.
func (t *Tracker) RecordFailure(ctx context.Context, name string, cooldown time.Duration) error {
	h, err := t.store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("read health for %q: %w", name, err)
	}

	h.Failures++
	if h.Failures >= disableThreshold {
		until := t.now().Add(cooldown)
		h.DisabledUntil = &until
		lgr.Printf("[WARN] source %q disabled for %v after %d consecutive failures", name, cooldown, h.Failures)
	}

	if err := t.store.Upsert(ctx, h); err != nil {
		return fmt.Errorf("record failure for %q: %w", name, err)
	}
	return nil
}
