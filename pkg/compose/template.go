// Package compose builds publishable post text from collected items,
// either through fixed templates or an LLM backend, and prepares
// facebook post files with accompanying images.
package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
	"github.com/iraqrahomi/iraqnews-bot/pkg/relevance"
)

// post templates
const (
	TemplateShort     = "short"
	TemplateSummary   = "summary"
	TemplateQA        = "qa"
	TemplateBilingual = "bilingual"
)

const shortSummaryRunes = 200

// whenStamp formats the item's publication time in Baghdad, falling back
// to now for items without one
func whenStamp(item domain.Item, now func() time.Time) string {
	ts := now().In(domain.Baghdad)
	if item.PublishedAt != nil {
		ts = item.PublishedAt.In(domain.Baghdad)
	}
	return ts.Format("2006-01-02 15:04")
}

// truncateRunes cuts s to n runes, appending an ellipsis when trimmed
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// TemplatePost renders a facebook-style post from a fixed template.
// Unknown template names fall through to a plain layout.
func TemplatePost(item domain.Item, template string, now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	when := whenStamp(item, now)
	shortSum := truncateRunes(strings.TrimSpace(item.Summary), shortSummaryRunes)

	switch template {
	case TemplateShort:
		return fmt.Sprintf("📰 %s\nالمصدر: %s | %s (بغداد)\n🔗 %s\n#أخبار_الأنبار #الرمادي",
			item.Title, item.Source, when, item.URL)
	case TemplateSummary:
		return fmt.Sprintf("📰 %s\n%s\n\n🌍 المصدر: %s\n🕒 %s (بغداد)\n🔗 %s\n#أخبار_الأنبار #الرمادي",
			item.Title, shortSum, item.Source, when, item.URL)
	case TemplateQA:
		return fmt.Sprintf("🗣️ %s\nشنو تأثير الخبر محليًا؟\n\nالمصدر: %s | %s (بغداد)\n🔗 %s\n#أخبار_الأنبار #نقاش",
			item.Title, item.Source, when, item.URL)
	case TemplateBilingual:
		en := truncateRunes(shortSum, 180)
		return fmt.Sprintf("📰 %s\n%s\n\n[EN] %s\n\nSource: %s | Baghdad Time: %s\n🔗 %s\n#Anbar #Ramadi",
			item.Title, shortSum, en, item.Source, when, item.URL)
	}
	return fmt.Sprintf("📰 %s\n%s\n\n🌍 %s\n🕒 %s (بغداد)\n🔗 %s",
		item.Title, shortSum, item.Source, when, item.URL)
}

// FallbackPost renders the minimal post used when no LLM backend is
// available or the backend call fails. The body budget never goes below
// zero, so a tiny maxPostLen drops the body rather than panicking.
func FallbackPost(item domain.Item, maxPostLen int) string {
	budget := maxPostLen - 100
	if budget < 0 {
		budget = 0
	}
	body := truncateRunes(strings.TrimSpace(item.Summary), budget)
	return fmt.Sprintf("📰 %s\n• %s...\nالمصدر: %s | %s", item.Title, body, item.Source, item.URL)
}

// WithLocality prefixes the post with a locality marker unless the text
// already mentions it.
func WithLocality(text, locality string) string {
	if locality == "" {
		return text
	}
	if strings.Contains(relevance.Fold(text), relevance.Fold(locality)) {
		return text
	}
	return fmt.Sprintf("📍 %s\n%s", locality, text)
}
