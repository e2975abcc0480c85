package intent

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupExtractorTest() *Extractor {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewExtractor(logger)
}

func TestExtractor_Extract(t *testing.T) {
	extractor := setupExtractorTest()

	t.Run("district selects parent region and becomes keyword", func(t *testing.T) {
		intent, keyword := extractor.Extract("해운대에서 데이트 코스 추천해줘")

		require.NotNil(t, intent.Region)
		assert.Equal(t, "부산", *intent.Region)
		assert.Equal(t, "해운대", keyword)
		require.NotNil(t, intent.Theme)
		assert.Equal(t, "데이트", *intent.Theme)
	})

	t.Run("top-level region with theme keyword", func(t *testing.T) {
		intent, keyword := extractor.Extract("서울 야경 보고 싶어")

		require.NotNil(t, intent.Region)
		assert.Equal(t, "서울", *intent.Region)
		assert.Equal(t, "야경", keyword)
		require.NotNil(t, intent.Theme)
		assert.Equal(t, "야경", *intent.Theme)
	})

	t.Run("no region leaves the field nil", func(t *testing.T) {
		intent, keyword := extractor.Extract("그냥 아무데나 놀러가고 싶어")

		assert.Nil(t, intent.Region)
		assert.Equal(t, DefaultKeyword, keyword)
	})

	t.Run("longest trigger wins over a shorter one", func(t *testing.T) {
		// 바다 (2 runes) beats 산 (1 rune); both are present.
		_, keyword := extractor.Extract("부산에서 바다도 보고 산도 타고 싶어")
		assert.Equal(t, "바다", keyword)
	})

	t.Run("equal-length triggers resolve to declared order", func(t *testing.T) {
		// 바다 and 카페 are both 2 runes; 바다 is declared first.
		_, keyword := extractor.Extract("부산 바다 카페")
		assert.Equal(t, "바다", keyword)
	})

	t.Run("time budget phrase sets max time minutes", func(t *testing.T) {
		intent, _ := extractor.Extract("서울에서 반나절 데이트")

		require.NotNil(t, intent.MaxTimeMinutes)
		assert.Equal(t, 240, *intent.MaxTimeMinutes)
	})

	t.Run("indoor marker", func(t *testing.T) {
		intent, _ := extractor.Extract("비 오는 날 실내 데이트")

		require.NotNil(t, intent.IndoorOutdoor)
		assert.Equal(t, "indoor", *intent.IndoorOutdoor)
	})

	t.Run("outdoor marker", func(t *testing.T) {
		intent, _ := extractor.Extract("서울 야외 나들이")

		require.NotNil(t, intent.IndoorOutdoor)
		assert.Equal(t, "outdoor", *intent.IndoorOutdoor)
	})

	t.Run("district without theme is the search keyword", func(t *testing.T) {
		intent, keyword := extractor.Extract("경주 여행 가고 싶다")

		require.NotNil(t, intent.Region)
		assert.Equal(t, "경북", *intent.Region)
		assert.Equal(t, "경주", keyword)
	})

	t.Run("theme only falls back when nothing more specific matched", func(t *testing.T) {
		intent, keyword := extractor.Extract("제주 가족 여행")

		require.NotNil(t, intent.Region)
		assert.Equal(t, "제주", *intent.Region)
		assert.Equal(t, "가족", keyword)
	})
}

func TestNormalizeRegion(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"special city suffix", "서울특별시", "서울", true},
		{"metropolitan city suffix", "부산광역시", "부산", true},
		{"self-governing province suffix", "제주특별자치도", "제주", true},
		{"plain province", "경기도", "경기", true},
		{"bare name", "강원", "강원", true},
		{"partial match on sub-district", "부산진구", "부산", true},
		{"unknown place", "파리", "", false},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeRegion(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAreaCode(t *testing.T) {
	tests := []struct {
		region string
		code   string
		ok     bool
	}{
		{"서울특별시", "1", true},
		{"서울", "1", true},
		{"부산", "6", true},
		{"세종특별자치시", "8", true},
		{"경기도", "31", true},
		{"제주특별자치도", "39", true},
		{"전남", "38", true},
		{"도쿄", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			code, ok := ResolveAreaCode(tt.region)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}
