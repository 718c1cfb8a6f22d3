package domain

import "time"

// SourceKind selects the fetch strategy for a source.
type SourceKind string

// supported fetch strategies
const (
	KindFeed   SourceKind = "feed"
	KindScrape SourceKind = "scrape"
)

// Source describes one configured news source.
type Source struct {
	Name            string     `yaml:"name"`
	Kind            SourceKind `yaml:"kind"`
	URL             string     `yaml:"url"`
	ListSelector    string     `yaml:"list_selector,omitempty"`    // scrape only, defaults to "a"
	ContentSelector string     `yaml:"content_selector,omitempty"` // scrape only, defaults to "article"
	Lang            string     `yaml:"lang,omitempty"`
}

// SourceHealth is the per-source circuit breaker row.
// Failures counts consecutive fetch failures and is reset only by a
// successful fetch; DisabledUntil gates whether the source is attempted.
type SourceHealth struct {
	Name          string
	Failures      int
	DisabledUntil *time.Time
}
