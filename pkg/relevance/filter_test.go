package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alef hamza below", "إصابة", "اصابه"},
		{"alef hamza above", "أخبار", "اخبار"},
		{"alef madda", "آثار", "اثار"},
		{"teh marbuta", "مدينة", "مدينه"},
		{"alef maqsura", "مستشفى", "مستشفي"},
		{"diacritics stripped", "الرَّمَادِي", "الرمادي"},
		{"arabic-indic digits", "٢٠٢٦", "2026"},
		{"latin lowercased", "Ramadi NEWS", "ramadi news"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestFilterRelevant(t *testing.T) {
	f := NewFilter(Params{
		Enabled:          true,
		RequiredKeywords: []string{"الأنبار", "الرمادي", "الفلوجة"},
		CityAliases:      []string{"الرمادي", "الفلوجة", "هيت"},
		DefaultLocality:  "الأنبار",
	})

	assert.True(t, f.Relevant("افتتاح جسر جديد في الرمادي", ""), "keyword in title")
	assert.True(t, f.Relevant("خبر محلي", "قوات الامن في محافظة الانبار"), "folded keyword in content, hamza dropped")
	assert.True(t, f.Relevant("أحداث الفلّوجة اليوم", ""), "keyword with diacritics")
	assert.False(t, f.Relevant("أخبار بغداد اليوم", "تطورات في الموصل"), "no keyword anywhere")
}

func TestFilterStrictCityOnly(t *testing.T) {
	f := NewFilter(Params{
		Enabled:          true,
		RequiredKeywords: []string{"الأنبار", "الرمادي"},
		CityAliases:      []string{"الرمادي", "هيت"},
		StrictCityOnly:   true,
		DefaultLocality:  "الأنبار",
	})

	assert.True(t, f.Relevant("انفجار قرب الرمادي", ""), "keyword and city")
	assert.False(t, f.Relevant("مجلس الأنبار يجتمع", ""), "keyword without city alias")
}

func TestFilterDisabled(t *testing.T) {
	f := NewFilter(Params{Enabled: false, RequiredKeywords: []string{"الأنبار"}})
	assert.True(t, f.Relevant("anything at all", "even unrelated text"))
}

func TestDetectLocality(t *testing.T) {
	f := NewFilter(Params{
		Enabled:         true,
		CityAliases:     []string{"الرمادي", "الفلوجة", "هيت"},
		DefaultLocality: "الأنبار",
	})

	assert.Equal(t, "الفلوجة", f.DetectLocality("تظاهرات في الفلوجه صباح اليوم"))
	assert.Equal(t, "هيت", f.DetectLocality("قضاء هيت يشهد أمطاراً غزيرة"))
	assert.Equal(t, "الأنبار", f.DetectLocality("خبر عام بلا مدينة محددة"))
}
