// Package processor runs the ingestion cycle: for each enabled source,
// fetch, filter, dedup, persist and deliver, then record the outcome.
// Everything is single-threaded: one source is fully drained before the
// next is attempted.
package processor

import (
	"context"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/iraqrahomi/iraqnews-bot/pkg/compose"
	"github.com/iraqrahomi/iraqnews-bot/pkg/dedup"
	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
	"github.com/iraqrahomi/iraqnews-bot/pkg/fetcher"
	"github.com/iraqrahomi/iraqnews-bot/pkg/fingerprint"
	"github.com/iraqrahomi/iraqnews-bot/pkg/health"
	"github.com/iraqrahomi/iraqnews-bot/pkg/relevance"
)

// ZeroStreakKey is the meta key tracking consecutive empty cycles
const ZeroStreakKey = "zero_streak"

// Ledger is the append-only item store the processor writes to
type Ledger interface {
	CreateItem(ctx context.Context, rec *domain.Record) error
}

// MetaStore holds small key/value cycle state
type MetaStore interface {
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
}

// Notifier delivers a post to the outbound channel, reporting success
type Notifier interface {
	Deliver(ctx context.Context, text string) bool
}

// FallbackSink receives items the notifier could not deliver
type FallbackSink interface {
	Write(item domain.Item) error
}

// SidePublisher is an optional best-effort publisher run after delivery
type SidePublisher interface {
	Publish(ctx context.Context, item domain.Item) (string, []string, error)
}

// Params configures a Processor; Feed, Health, Detector, Ledger, Meta,
// Composer, Notifier and Fallback are required.
type Params struct {
	Sources []domain.Source
	Feed    fetcher.Fetcher
	Scrape  fetcher.Fetcher

	Health   *health.Tracker
	Detector *dedup.Detector
	Ledger   Ledger
	Meta     MetaStore

	Relevance      *relevance.Filter
	PrefixLocality bool
	Composer       compose.Composer
	Notifier       Notifier
	Fallback       FallbackSink
	Facebook       SidePublisher

	HardCooldown  time.Duration
	EmptyCooldown time.Duration
	ItemDelay     time.Duration
}

// Processor drives one ingestion pass over the configured sources
type Processor struct {
	Params

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a processor
func New(p Params) *Processor {
	return &Processor{Params: p, now: time.Now, sleep: time.Sleep}
}

// RunCycle executes one full ingestion pass and returns the number of
// accepted items. Per-source and per-item failures are recorded and
// never abort the rest of the pass.
func (p *Processor) RunCycle(ctx context.Context) int {
	accepted := 0

	for _, src := range p.Sources {
		if p.Health.IsDisabled(ctx, src.Name) {
			lgr.Printf("[WARN] skip %q, temporarily disabled", src.Name)
			continue
		}

		items, err := p.fetch(ctx, src)
		if err != nil {
			lgr.Printf("[ERROR] fetch failed for %q: %v", src.Name, err)
			if ferr := p.Health.RecordFailure(ctx, src.Name, p.HardCooldown); ferr != nil {
				lgr.Printf("[WARN] record failure for %q: %v", src.Name, ferr)
			}
			continue
		}
		lgr.Printf("[INFO] %s: fetched %d items", src.Name, len(items))
		if len(items) == 0 {
			if ferr := p.Health.RecordFailure(ctx, src.Name, p.EmptyCooldown); ferr != nil {
				lgr.Printf("[WARN] record failure for %q: %v", src.Name, ferr)
			}
			continue
		}
		if err := p.Health.RecordSuccess(ctx, src.Name); err != nil {
			lgr.Printf("[WARN] record success for %q: %v", src.Name, err)
		}

		for _, item := range items {
			if p.handleItem(ctx, item) {
				accepted++
				p.sleep(p.ItemDelay)
			}
		}
	}

	p.updateZeroStreak(ctx, accepted)
	lgr.Printf("[INFO] new items sent/saved: %d", accepted)
	return accepted
}

// fetch dispatches to the feed or scrape fetcher by source kind.
// Unrecognized kinds are treated as feeds with a warning, so a config
// typo shows up in the logs instead of being silently absorbed.
func (p *Processor) fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	switch src.Kind {
	case domain.KindScrape:
		return p.Scrape.Fetch(ctx, src)
	case domain.KindFeed:
		return p.Feed.Fetch(ctx, src)
	}
	lgr.Printf("[WARN] unknown kind %q for source %q, treating as feed", src.Kind, src.Name)
	return p.Feed.Fetch(ctx, src)
}

// handleItem runs one item through filter, dedup, persist and delivery.
// Returns true when the item was accepted (persisted). Persistence comes
// before delivery: an accepted item must be durable before any network
// send, and delivery failure routes to the fallback sink instead of
// undoing the write.
func (p *Processor) handleItem(ctx context.Context, item domain.Item) bool {
	if !item.Eligible() {
		return false
	}

	if p.Relevance != nil && !p.Relevance.Relevant(item.Title, item.Summary) {
		return false
	}

	dup, err := p.Detector.IsDuplicate(ctx, item.Title, item.URL, item.Summary)
	if err != nil {
		lgr.Printf("[WARN] dedup check failed for %s, treating as new: %v", item.URL, err)
	}
	if dup {
		lgr.Printf("[INFO] skip duplicate/similar: %s", item.Title)
		return false
	}

	if err := p.persist(ctx, item); err != nil {
		lgr.Printf("[ERROR] persist failed for %s, delivery skipped: %v", item.URL, err)
		return false
	}

	text := p.Composer.Compose(ctx, item)
	if p.PrefixLocality && p.Relevance != nil {
		text = compose.WithLocality(text, p.Relevance.DetectLocality(item.Title+"\n"+item.Summary))
	}

	if !p.Notifier.Deliver(ctx, text) {
		if err := p.Fallback.Write(item); err != nil {
			lgr.Printf("[ERROR] fallback write failed for %s: %v", item.URL, err)
		}
	}

	if p.Facebook != nil {
		if _, _, err := p.Facebook.Publish(ctx, item); err != nil {
			lgr.Printf("[WARN] facebook compose failed for %s: %v", item.URL, err)
		}
	}
	return true
}

// persist writes the accepted item to the ledger with its fingerprints
func (p *Processor) persist(ctx context.Context, item domain.Item) error {
	titleHash := fingerprint.Hash(item.Title)
	contentHash := titleHash
	if item.Summary != "" {
		contentHash = fingerprint.Hash(item.Summary)
	}
	rec := domain.Record{
		Source:      item.Source,
		Title:       item.Title,
		URL:         fingerprint.CanonicalURL(item.URL),
		PublishedAt: item.PublishedAt,
		TitleHash:   titleHash,
		ContentHash: contentHash,
		CreatedAt:   p.now().In(domain.Baghdad),
	}
	return p.Ledger.CreateItem(ctx, &rec)
}

// updateZeroStreak increments the streak on an empty cycle, resets it
// otherwise. Meta errors are logged, the cycle result stands.
func (p *Processor) updateZeroStreak(ctx context.Context, accepted int) {
	streak := 0
	if accepted == 0 {
		raw, err := p.Meta.GetMeta(ctx, ZeroStreakKey)
		if err != nil {
			lgr.Printf("[WARN] read %s: %v", ZeroStreakKey, err)
		}
		if n, err := strconv.Atoi(raw); err == nil {
			streak = n
		}
		streak++
	}
	if err := p.Meta.SetMeta(ctx, ZeroStreakKey, strconv.Itoa(streak)); err != nil {
		lgr.Printf("[WARN] write %s: %v", ZeroStreakKey, err)
	}
}
