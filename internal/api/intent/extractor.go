package intent

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jamijombole/travelgenie/internal/types"
)

// district is a fine-grained place name tied to its parent top-level region.
// Slice order is the declared tie-break order when two matches have the same
// length.
type district struct {
	Name   string
	Region string
}

var districts = []district{
	{"해운대", "부산"},
	{"광안리", "부산"},
	{"태종대", "부산"},
	{"남포동", "부산"},
	{"서면", "부산"},
	{"감천문화마을", "부산"},
	{"강남", "서울"},
	{"홍대", "서울"},
	{"명동", "서울"},
	{"이태원", "서울"},
	{"종로", "서울"},
	{"잠실", "서울"},
	{"북촌", "서울"},
	{"성수", "서울"},
	{"여의도", "서울"},
	{"수원", "경기"},
	{"가평", "경기"},
	{"파주", "경기"},
	{"용인", "경기"},
	{"강릉", "강원"},
	{"속초", "강원"},
	{"평창", "강원"},
	{"춘천", "강원"},
	{"양양", "강원"},
	{"경주", "경북"},
	{"안동", "경북"},
	{"포항", "경북"},
	{"통영", "경남"},
	{"거제", "경남"},
	{"남해", "경남"},
	{"전주", "전북"},
	{"군산", "전북"},
	{"여수", "전남"},
	{"순천", "전남"},
	{"목포", "전남"},
	{"담양", "전남"},
	{"서귀포", "제주"},
	{"애월", "제주"},
	{"성산", "제주"},
	{"단양", "충북"},
	{"청주", "충북"},
	{"공주", "충남"},
	{"태안", "충남"},
	{"보령", "충남"},
}

// topRegions is scanned only when no district matched.
var topRegions = []string{
	"서울", "인천", "대전", "대구", "광주", "부산", "울산", "세종",
	"경기", "강원", "충북", "충남", "경북", "경남", "전북", "전남", "제주",
}

// theme groups search-keyword triggers under a representative label. The
// label itself is what gets sent to the tourism API as the keyword.
type theme struct {
	Label    string
	Triggers []string
}

var themes = []theme{
	{"바다", []string{"바다", "해수욕장", "해변", "해안", "일몰", "낚시"}},
	{"산", []string{"산", "등산", "하이킹"}},
	{"카페", []string{"카페", "커피"}},
	{"데이트", []string{"데이트", "연인"}},
	{"가족", []string{"가족", "아이"}},
	{"맛집", []string{"맛집", "음식", "레스토랑"}},
	{"문화", []string{"문화", "박물관", "미술관"}},
	{"쇼핑", []string{"쇼핑", "마켓"}},
	{"야경", []string{"야경", "전망대"}},
}

// DefaultKeyword is sent to the tourism API when nothing more specific could
// be extracted; the upstream API rejects empty keywords.
const DefaultKeyword = "관광"

// filterThemes are the labels understood by the candidate filter.
var filterThemeTriggers = []struct {
	Label    string
	Triggers []string
}{
	{"데이트", []string{"데이트", "연인"}},
	{"가족", []string{"가족", "아이들", "아이"}},
	{"힐링", []string{"힐링"}},
	{"문화", []string{"문화"}},
	{"야경", []string{"야경"}},
}

// timeBudgets maps duration phrases to minutes. Only phrases the original
// query heuristics understood are listed; there is no general parser.
var timeBudgets = []struct {
	Phrase  string
	Minutes int
}{
	{"반나절", 240},
	{"반 날", 240},
	{"하루", 480},
	{"일일", 480},
	{"2시간", 120},
	{"3시간", 180},
	{"4시간", 240},
}

// Extractor derives a QueryIntent and a search keyword from free text using
// static lexicons. It has no failure mode: absent fields simply stay nil.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the structured intent plus the keyword to feed the tourism
// search. Matching is plain substring containment; among all matches the
// longest one wins and ties fall back to lexicon declaration order.
func (e *Extractor) Extract(query string) (types.QueryIntent, string) {
	lowered := strings.ToLower(query)

	var intent types.QueryIntent

	region, placeKeyword := extractRegion(query)
	if region != "" {
		intent.Region = &region
	}

	themeLabel := matchLongest(lowered, len(themes), func(i int) (string, []string) {
		return themes[i].Label, themes[i].Triggers
	})

	filterTheme := matchLongest(lowered, len(filterThemeTriggers), func(i int) (string, []string) {
		return filterThemeTriggers[i].Label, filterThemeTriggers[i].Triggers
	})
	if filterTheme != "" {
		intent.Theme = &filterTheme
	}

	if io := extractIndoorOutdoor(lowered); io != "" {
		intent.IndoorOutdoor = &io
	}

	for _, tb := range timeBudgets {
		if strings.Contains(lowered, tb.Phrase) {
			minutes := tb.Minutes
			intent.MaxTimeMinutes = &minutes
			break
		}
	}

	// Keyword priority: a district more specific than its region, then a
	// matched theme, then the generic fallback.
	keyword := DefaultKeyword
	switch {
	case placeKeyword != "":
		keyword = placeKeyword
	case themeLabel != "":
		keyword = themeLabel
	}

	e.logger.Debug("extracted query intent",
		slog.String("query", query),
		slog.String("region", region),
		slog.String("keyword", keyword),
	)
	return intent, keyword
}

// extractRegion scans the district lexicon first; a district match selects
// its parent region and becomes the keyword unless it equals the region
// itself. Top-level regions are only consulted when no district matched.
func extractRegion(query string) (region, keyword string) {
	bestLen := 0
	for _, d := range districts {
		if !strings.Contains(query, d.Name) {
			continue
		}
		if n := utf8.RuneCountInString(d.Name); n > bestLen {
			bestLen = n
			region = d.Region
			keyword = d.Name
		}
	}
	if region != "" {
		if keyword == region {
			keyword = ""
		}
		return region, keyword
	}

	for _, r := range topRegions {
		if !strings.Contains(query, r) {
			continue
		}
		if n := utf8.RuneCountInString(r); n > bestLen {
			bestLen = n
			region = r
		}
	}
	return region, ""
}

// matchLongest returns the label of whichever lexicon entry owns the longest
// trigger found in the query. Entries are visited in declared order, so equal
// lengths resolve to the earlier entry.
func matchLongest(lowered string, n int, entry func(i int) (string, []string)) string {
	var label string
	bestLen := 0
	for i := 0; i < n; i++ {
		lbl, triggers := entry(i)
		for _, trigger := range triggers {
			if !strings.Contains(lowered, strings.ToLower(trigger)) {
				continue
			}
			if l := utf8.RuneCountInString(trigger); l > bestLen {
				bestLen = l
				label = lbl
			}
		}
	}
	return label
}

func extractIndoorOutdoor(lowered string) string {
	if strings.Contains(lowered, "실내") {
		return "indoor"
	}
	for _, marker := range []string{"야외", "실외", "바깥"} {
		if strings.Contains(lowered, marker) {
			return "outdoor"
		}
	}
	return ""
}
