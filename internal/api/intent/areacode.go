package intent

import "strings"

// areaCodes maps the 17 top-level administrative regions to the numeric
// area codes used by the Korea Tourism Organization API.
var areaCodes = map[string]string{
	"서울": "1",
	"인천": "2",
	"대전": "3",
	"대구": "4",
	"광주": "5",
	"부산": "6",
	"울산": "7",
	"세종": "8",
	"경기": "31",
	"강원": "32",
	"충북": "33",
	"충남": "34",
	"경북": "35",
	"경남": "36",
	"전북": "37",
	"전남": "38",
	"제주": "39",
}

// NormalizeRegion strips common administrative suffixes ("서울특별시" ->
// "서울") and resolves the result against the area code table. The second
// return is false when nothing matches; callers must treat that as "search
// without an area filter", not as an error.
func NormalizeRegion(region string) (string, bool) {
	region = strings.TrimSpace(region)

	// Strip compound suffixes before the single-character ones so that
	// "특별시" does not leave a dangling "특별" behind.
	for _, suffix := range []string{"특별자치도", "특별자치시", "특별시", "광역시", "시", "도"} {
		region = strings.ReplaceAll(region, suffix, "")
	}
	region = strings.TrimSpace(region)
	if region == "" {
		return "", false
	}

	if _, ok := areaCodes[region]; ok {
		return region, true
	}

	// Partial match fallback for inputs like "부산진구".
	for key := range areaCodes {
		if strings.Contains(region, key) || strings.Contains(key, region) {
			return key, true
		}
	}
	return "", false
}

// AreaCode returns the numeric area code for a normalized region name.
func AreaCode(region string) (string, bool) {
	code, ok := areaCodes[region]
	return code, ok
}

// ResolveAreaCode normalizes a raw region name and looks up its code in one
// step. Absence of a code is a valid outcome.
func ResolveAreaCode(region string) (string, bool) {
	normalized, ok := NormalizeRegion(region)
	if !ok {
		return "", false
	}
	return AreaCode(normalized)
}
