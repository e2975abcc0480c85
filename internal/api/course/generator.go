package course

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/jamijombole/travelgenie/internal/types"
)

const (
	defaultSummary       = "여행 코스가 생성되었습니다."
	fallbackItemName     = "오류"
	fallbackItemTime     = "0분"
	defaultGenTimeout    = 60 * time.Second
	summaryTemplateKey   = "총 %d개의 장소를 둘러보는 여행 코스입니다."
	fallbackSummaryValue = "코스 생성에 실패하여 기본 응답을 반환합니다."
)

// TextGenerator is the single-turn model boundary. Satisfied by
// generativeAI.AIClient; tests substitute a scripted fake.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// Generator turns a query plus assembled context into a TravelCourse. Its
// contract is that it never fails: every malformed model response degrades to
// a well-formed fallback payload instead of an error.
type Generator struct {
	logger      *slog.Logger
	ai          TextGenerator
	temperature float32
	timeout     time.Duration
}

func NewGenerator(ai TextGenerator, temperature float32, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = defaultGenTimeout
	}
	return &Generator{
		logger:      logger,
		ai:          ai,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Generate runs one model call and parses, repairs and validates the result.
func (g *Generator) Generate(ctx context.Context, query, contextText string, maxTimeMinutes *int) types.TravelCourse {
	ctx, span := otel.Tracer("CourseGenerator").Start(ctx, "Generate")
	defer span.End()

	l := g.logger.With(slog.String("method", "Generate"))

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := coursePrompt(query, contextText, maxTimeMinutes)
	raw, err := g.ai.GenerateContent(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		l.ErrorContext(ctx, "Model call failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Model call failed")
		return fallbackCourse(err.Error())
	}

	travelCourse, err := parseCourseResponse(raw)
	if err != nil {
		l.ErrorContext(ctx, "Failed to parse model response",
			slog.Any("error", err),
			slog.String("response_prefix", prefix(raw, 200)),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Response parsing failed")
		return fallbackCourse(err.Error())
	}

	span.SetAttributes(attribute.Int("course.items", len(travelCourse.Course)))
	span.SetStatus(codes.Ok, "Course generated")
	return travelCourse
}

// parseCourseResponse is deliberately liberal: it extracts fenced blocks,
// wraps bare arrays, and synthesizes a missing summary before validating.
func parseCourseResponse(raw string) (types.TravelCourse, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return types.TravelCourse{}, fmt.Errorf("모델 응답이 비어 있습니다")
	}

	content = stripCodeFence(content)

	var travelCourse types.TravelCourse
	if strings.HasPrefix(content, "[") {
		// Some responses return the course array without the wrapper object.
		var items []types.CourseItem
		if err := json.Unmarshal([]byte(content), &items); err != nil {
			return types.TravelCourse{}, fmt.Errorf("JSON 배열 파싱 실패: %w", err)
		}
		travelCourse = types.TravelCourse{Course: items, Summary: defaultSummary}
	} else {
		if err := json.Unmarshal([]byte(content), &travelCourse); err != nil {
			return types.TravelCourse{}, fmt.Errorf("JSON 파싱 실패: %w", err)
		}
	}

	if travelCourse.Summary == "" {
		travelCourse.Summary = fmt.Sprintf(summaryTemplateKey, len(travelCourse.Course))
	}

	if err := validateCourse(travelCourse); err != nil {
		return types.TravelCourse{}, err
	}
	return travelCourse, nil
}

// stripCodeFence extracts the first fenced segment and drops a leading
// language tag, tolerating responses wrapped in markdown.
func stripCodeFence(content string) string {
	if !strings.Contains(content, "```") {
		return content
	}
	parts := strings.Split(content, "```")
	if len(parts) < 2 {
		return content
	}
	segment := strings.TrimSpace(parts[1])
	for _, tag := range []string{"json", "JSON"} {
		if strings.HasPrefix(segment, tag) {
			segment = strings.TrimSpace(strings.TrimPrefix(segment, tag))
			break
		}
	}
	return segment
}

func validateCourse(tc types.TravelCourse) error {
	if len(tc.Course) == 0 {
		return fmt.Errorf("코스 항목이 비어 있습니다")
	}
	for i, item := range tc.Course {
		if item.Name == "" {
			return fmt.Errorf("코스 %d번 항목에 장소명이 없습니다", i+1)
		}
	}
	return nil
}

// fallbackCourse is the terminal recovery step: a single error item so the
// endpoint can still answer 200 with a well-formed payload.
func fallbackCourse(errMsg string) types.TravelCourse {
	return types.TravelCourse{
		Course: []types.CourseItem{
			{
				Name:        fallbackItemName,
				Description: fmt.Sprintf("코스 생성에 실패했습니다: %s", errMsg),
				Time:        fallbackItemTime,
			},
		},
		Summary: fallbackSummaryValue,
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
