package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips utm params keeps others",
			input:    "https://x/a?utm_source=y&id=5",
			expected: "https://x/a?id=5",
		},
		{
			name:     "strips fbclid and gclid",
			input:    "https://example.com/news?fbclid=abc&gclid=def&page=2",
			expected: "https://example.com/news?page=2",
		},
		{
			name:     "strips any utm prefix",
			input:    "https://example.com/a?utm_campaign=x&utmzz=y&q=1",
			expected: "https://example.com/a?q=1",
		},
		{
			name:     "removes fragment",
			input:    "https://example.com/article#comments",
			expected: "https://example.com/article",
		},
		{
			name:     "preserves remaining param order",
			input:    "https://example.com/a?z=1&utm_medium=m&a=2&b=3",
			expected: "https://example.com/a?z=1&a=2&b=3",
		},
		{
			name:     "no query untouched",
			input:    "https://example.com/a/b/c",
			expected: "https://example.com/a/b/c",
		},
		{
			name:     "all params stripped",
			input:    "https://example.com/a?utm_source=s&utm_medium=m",
			expected: "https://example.com/a",
		},
		{
			name:     "malformed url passes through",
			input:    "ht tp://bro ken",
			expected: "ht tp://bro ken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalURL(tt.input))
		})
	}
}

func TestCanonicalURL_Idempotent(t *testing.T) {
	urls := []string{
		"https://x/a?utm_source=y&id=5",
		"https://example.com/news?fbclid=abc&page=2#frag",
		"https://example.com/plain",
		"not a url at all",
	}
	for _, u := range urls {
		once := CanonicalURL(u)
		assert.Equal(t, once, CanonicalURL(once), "canonicalize must be idempotent for %q", u)
	}
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("hello"), Hash("hello"), "equal strings produce equal digests")
	assert.Equal(t, Hash("hello"), Hash("  hello  "), "digest covers trimmed text")
	assert.NotEqual(t, Hash("a"), Hash("b"))
	assert.Len(t, Hash("anything"), 64)
}
