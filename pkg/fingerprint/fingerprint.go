// Package fingerprint provides URL canonicalization and content hashing
// used as stable identity keys for duplicate detection. All functions are
// pure and never fail on malformed publisher-supplied input.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// CanonicalURL strips tracking query parameters (any utm* prefix, fbclid,
// gclid) and the fragment from the URL, preserving the relative order of
// the remaining parameters. Malformed URLs are returned unchanged.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if u.RawQuery != "" {
		kept := make([]string, 0, 4)
		for _, pair := range strings.Split(u.RawQuery, "&") {
			if pair == "" {
				continue
			}
			key := pair
			if idx := strings.Index(pair, "="); idx >= 0 {
				key = pair[:idx]
			}
			if isTrackingParam(key) {
				continue
			}
			kept = append(kept, pair)
		}
		u.RawQuery = strings.Join(kept, "&")
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// isTrackingParam reports whether a query key carries tracking noise only
func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "utm") || k == "fbclid" || k == "gclid"
}

// Hash returns the sha256 hex digest of the trimmed UTF-8 text.
// Identical input always yields an identical digest.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
