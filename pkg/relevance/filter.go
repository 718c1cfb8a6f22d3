// Package relevance implements the keyword predicate applied to items
// before deduplication. Matching is done on folded text so diacritics,
// letter variants and digit forms do not hide a keyword.
package relevance

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filter decides whether an item is worth publishing
type Filter struct {
	enabled        bool
	keywords       []string // folded
	cityAliases    []string // original form, matched folded
	strictCityOnly bool
	defaultCity    string
}

// Params configures the filter
type Params struct {
	Enabled          bool
	RequiredKeywords []string
	CityAliases      []string
	StrictCityOnly   bool
	DefaultLocality  string
}

// NewFilter creates a relevance filter. A disabled filter treats every
// item as relevant.
func NewFilter(p Params) *Filter {
	folded := make([]string, 0, len(p.RequiredKeywords))
	for _, k := range p.RequiredKeywords {
		if f := Fold(k); f != "" {
			folded = append(folded, f)
		}
	}
	return &Filter{
		enabled:        p.Enabled,
		keywords:       folded,
		cityAliases:    p.CityAliases,
		strictCityOnly: p.StrictCityOnly,
		defaultCity:    p.DefaultLocality,
	}
}

// Relevant reports whether the combined title+content text mentions a
// required keyword (and, in strict mode, a known city alias).
func (f *Filter) Relevant(title, content string) bool {
	if !f.enabled {
		return true
	}

	text := Fold(title + "\n" + content)
	found := false
	for _, k := range f.keywords {
		if strings.Contains(text, k) {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if f.strictCityOnly {
		return f.findCity(text) != ""
	}
	return true
}

// DetectLocality returns the first city alias mentioned in the text, or
// the configured default region when none matches.
func (f *Filter) DetectLocality(text string) string {
	if city := f.findCity(Fold(text)); city != "" {
		return city
	}
	return f.defaultCity
}

// findCity scans folded text for a folded city alias, returning the alias
// in its original form
func (f *Filter) findCity(folded string) string {
	for _, c := range f.cityAliases {
		if fc := Fold(c); fc != "" && strings.Contains(folded, fc) {
			return c
		}
	}
	return ""
}

// arabicIndicDigits maps ٠-٩ to ASCII digits
var arabicIndicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// letterFolds collapses Arabic letter variants to one canonical form
var letterFolds = strings.NewReplacer(
	"إ", "ا", "أ", "ا", "آ", "ا",
	"ى", "ي", "ئ", "ي",
	"ؤ", "و",
	"ة", "ه",
)

// foldTransform applies NFKC normalization and strips combining marks
// (Arabic diacritics among them)
var foldTransform = transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Mn)))

// Fold normalizes text for keyword matching: NFKC, diacritics removed,
// letter variants and digit forms collapsed, lowercased. Transform
// failures fall back to the lowercased input rather than failing the
// predicate.
func Fold(s string) string {
	out, _, err := transform.String(foldTransform, s)
	if err != nil {
		out = s
	}
	out = letterFolds.Replace(out)
	out = arabicIndicDigits.Replace(out)
	return strings.ToLower(out)
}
