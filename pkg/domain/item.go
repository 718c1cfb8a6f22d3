package domain

import "time"

// Baghdad is the fixed local offset all published timestamps are normalized to.
var Baghdad = time.FixedZone("Asia/Baghdad", 3*60*60)

// Item represents a candidate news entry produced by a fetcher,
// normalized and not yet checked against the store.
type Item struct {
	Source      string
	Title       string
	URL         string
	PublishedAt *time.Time
	Summary     string
}

// Eligible reports whether the item can be persisted: both title and URL
// must be non-empty after normalization.
func (i *Item) Eligible() bool {
	return i.Title != "" && i.URL != ""
}

// Record is the durable row derived from an accepted Item.
// The items ledger is append-only: records are never updated or deleted.
type Record struct {
	ID          int64
	Source      string
	Title       string
	URL         string
	PublishedAt *time.Time
	TitleHash   string
	ContentHash string
	CreatedAt   time.Time
}
