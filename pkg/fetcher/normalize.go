package fetcher

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// summaryMaxRunes caps the stored summary/body excerpt length
const summaryMaxRunes = 1500

// stripPolicy removes all markup from feed-supplied summaries
var stripPolicy = bluemonday.StrictPolicy()

// boilerplatePrefix matches breaking/photos/video style headline prefixes,
// Arabic and English, followed by a separator.
var boilerplatePrefix = regexp.MustCompile(`(?i)^(عاجل|خبر عاجل|بالصور|فيديو|breaking|photos|video)[:\-\s]+`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// cleanText unescapes HTML entities and collapses whitespace runs
func cleanText(t string) string {
	t = html.UnescapeString(t)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))
}

// normalizeTitle cleans a headline and strips boilerplate prefixes
func normalizeTitle(t string) string {
	return boilerplatePrefix.ReplaceAllString(cleanText(t), "")
}

// normalizeSummary strips markup from a body/excerpt, cleans it and caps
// its length at a fixed rune budget.
func normalizeSummary(s string) string {
	s = cleanText(stripPolicy.Sanitize(s))
	runes := []rune(s)
	if len(runes) > summaryMaxRunes {
		return string(runes[:summaryMaxRunes])
	}
	return s
}

// normalizeTime converts a published timestamp to the fixed local offset;
// nil stays nil.
func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(domain.Baghdad)
	return &local
}
