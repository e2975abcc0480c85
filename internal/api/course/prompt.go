package course

import (
	"fmt"
	"strings"

	"github.com/jamijombole/travelgenie/internal/types"
)

// coursePrompt builds the fixed generation template. The rules pin the model
// to strict JSON with `course` and `summary`; everything else in the
// generator assumes the model will still get this wrong some of the time.
func coursePrompt(query, context string, maxTimeMinutes *int) string {
	var b strings.Builder

	b.WriteString(`당신은 전문 여행 코스 추천 AI입니다.
제공된 여행지 정보를 기반으로 최적의 여행 코스를 생성하세요.

규칙:
1. 사용자의 쿼리(지역/시간/테마)를 정확히 분석
2. 제공된 여행지 정보를 활용
3. 이동 시간, 체류 시간 현실적으로 반영
4. 코스는 최소 2개, 최대 6개
5. 전체 코스의 총 소요시간은 5시간 내외로 구성
6. 반드시 course와 summary 필드를 모두 포함해야 함
7. JSON만 출력 (추가 설명 금지)

출력 형식:
{
  "course": [
    {
      "name": "장소명",
      "description": "간단한 설명",
      "address": "주소",
      "type": "장소 유형",
      "time": "1시간"
    }
  ],
  "summary": "이 코스는 OO의 주요 명소를 5시간 동안 둘러보는 코스입니다."
}
`)

	if maxTimeMinutes != nil {
		fmt.Fprintf(&b, "\n사용자 시간 예산: 약 %d분 이내로 구성하세요.\n", *maxTimeMinutes)
	}

	fmt.Fprintf(&b, "\n사용자 요청:\n%s\n\n여행지 정보:\n%s\n\nJSON만 반환하세요.\n", query, context)
	return b.String()
}

// FormatItemsForContext renders the top candidates as a numbered listing that
// is appended to the retrieval context.
func FormatItemsForContext(items []types.TourismItem) string {
	var formatted []string
	for i, item := range items {
		if i >= 10 {
			break
		}
		title := item.Title
		if title == "" {
			title = "이름 없음"
		}
		addr := item.Addr1
		if addr == "" {
			addr = item.Addr2
		}
		formatted = append(formatted, fmt.Sprintf(
			"%d. %s\n   주소: %s\n   전화: %s\n   유형: %s",
			i+1, title, addr, item.Tel, item.ContentTypeID,
		))
	}
	return strings.Join(formatted, "\n\n")
}
