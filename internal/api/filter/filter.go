package filter

import (
	"strings"

	"github.com/jamijombole/travelgenie/internal/types"
)

// themeKeywords maps a theme label to the venue-name keywords that satisfy
// it. Unknown themes fall back to matching the label itself.
var themeKeywords = map[string][]string{
	"데이트": {"카페", "레스토랑", "공원", "전시", "영화"},
	"가족":  {"공원", "박물관", "체험", "놀이", "아이"},
	"힐링":  {"산", "바다", "공원", "카페", "스파"},
	"문화":  {"박물관", "미술관", "전시", "공연", "역사"},
	"야경":  {"타워", "전망", "다리", "산"},
}

var indoorKeywords = []string{"실내", "미술관", "박물관", "카페", "레스토랑", "쇼핑", "영화"}
var outdoorKeywords = []string{"산", "바다", "공원", "해변", "등산", "산책"}

// Apply filters venues by the intent's theme and indoor/outdoor constraints,
// composed as a logical AND. The max-time budget is accepted on the intent
// but deliberately not enforced here: venues carry no duration attribute, so
// the value is only a hint for the generation stage. Callers are responsible
// for the never-empty fallback; Apply itself may return an empty slice.
func Apply(items []types.TourismItem, intent types.QueryIntent) []types.TourismItem {
	filtered := items

	if intent.Theme != nil {
		keywords, ok := themeKeywords[*intent.Theme]
		if !ok {
			keywords = []string{*intent.Theme}
		}
		filtered = keep(filtered, func(item types.TourismItem) bool {
			title := strings.ToLower(item.Title)
			for _, kw := range keywords {
				if strings.Contains(title, strings.ToLower(kw)) {
					return true
				}
			}
			return false
		})
	}

	if intent.IndoorOutdoor != nil {
		keywords := outdoorKeywords
		if strings.EqualFold(*intent.IndoorOutdoor, "indoor") {
			keywords = indoorKeywords
		}
		filtered = keep(filtered, func(item types.TourismItem) bool {
			text := strings.ToLower(item.Title + " " + item.Addr1 + item.Addr2)
			for _, kw := range keywords {
				if strings.Contains(text, kw) {
					return true
				}
			}
			return false
		})
	}

	return filtered
}

func keep(items []types.TourismItem, pred func(types.TourismItem) bool) []types.TourismItem {
	out := make([]types.TourismItem, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}
