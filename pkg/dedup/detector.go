// Package dedup decides whether a candidate item has already been seen.
// Exact matches are caught by fingerprint lookups against the full ledger;
// near-identical rewrites are caught by a fuzzy title scan over a bounded
// recency window. Older near-duplicates are intentionally allowed through.
package dedup

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/iraqrahomi/iraqnews-bot/pkg/fingerprint"
)

// defaults for the fuzzy scan
const (
	DefaultThreshold = 0.92
	DefaultWindow    = 200
)

// RecentStore is the ledger access the detector needs
type RecentStore interface {
	ExistsByFingerprint(ctx context.Context, url, titleHash, contentHash string) (bool, error)
	RecentTitles(ctx context.Context, n int) ([]string, error)
}

// Detector performs exact and fuzzy duplicate checks
type Detector struct {
	store     RecentStore
	threshold float64
	window    int
}

// NewDetector creates a detector with the given similarity threshold and
// recency window size; zero values select the defaults.
func NewDetector(store RecentStore, threshold float64, window int) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{store: store, threshold: threshold, window: window}
}

// IsDuplicate reports whether the candidate matches an already persisted
// record, exactly (canonical URL, title or content fingerprint) or fuzzily
// (title similarity at or above the threshold within the recency window).
// When content is empty the title fingerprint doubles as the content one.
func (d *Detector) IsDuplicate(ctx context.Context, title, url, content string) (bool, error) {
	titleHash := fingerprint.Hash(title)
	contentHash := titleHash
	if content != "" {
		contentHash = fingerprint.Hash(content)
	}
	canonical := fingerprint.CanonicalURL(url)

	exists, err := d.store.ExistsByFingerprint(ctx, canonical, titleHash, contentHash)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	titles, err := d.store.RecentTitles(ctx, d.window)
	if err != nil {
		return false, err
	}

	for _, old := range titles {
		if Similarity(old, title) >= d.threshold {
			return true, nil
		}
	}
	return false, nil
}

// Similarity returns a normalized edit-distance ratio in [0,1] between two
// trimmed strings: 1 for identical, 0 for nothing in common. Degenerate
// input (either side empty) scores 0, never an error, so a bad comparison
// degrades to under-filtering rather than blocking ingestion.
func Similarity(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
