package compose

import (
	"regexp"
	"strings"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slugify turns a title into a filesystem-safe name, keeping unicode
// letters so Arabic titles stay readable. Empty input yields "post".
func Slugify(s string, maxLen int) string {
	s = nonWordRe.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-")
	if runes := []rune(s); len(runes) > maxLen {
		s = strings.Trim(string(runes[:maxLen]), "-")
	}
	if s == "" {
		return "post"
	}
	return s
}
