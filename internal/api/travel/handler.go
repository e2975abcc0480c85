package travel

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/jamijombole/travelgenie/app/observability/metrics"
	"github.com/jamijombole/travelgenie/internal/api"
	"github.com/jamijombole/travelgenie/internal/api/tourism"
	"github.com/jamijombole/travelgenie/internal/types"
)

// ServiceInfo is the payload of GET /.
type ServiceInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type Handler struct {
	logger  *slog.Logger
	service Service
	version string
}

func NewHandler(service Service, version string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		version: version,
	}
}

// Search handles POST /travel/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "Search")
	defer span.End()

	l := h.logger.With(slog.String("method", "Search"))

	var req types.SearchRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid search request body", slog.Any("error", err))
		span.SetStatus(otelcodes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Search(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		var upstreamErr *tourism.UpstreamError
		if errors.As(err, &upstreamErr) && (upstreamErr.Unexpected || upstreamErr.StatusCode >= http.StatusInternalServerError) {
			status = http.StatusServiceUnavailable
		}
		l.ErrorContext(ctx, "Venue search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "Search failed")
		metrics.Get().UpstreamErrorsTotal.Add(ctx, 1)
		api.ErrorResponse(w, r, status, fmt.Sprintf("검색 중 오류 발생: %v", err))
		return
	}

	span.SetStatus(otelcodes.Ok, "Search completed")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Recommend handles POST /travel/recommend. Once venues are found the
// endpoint always answers 200; only search failures and the empty outcome
// map to error statuses.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "Recommend")
	defer span.End()

	l := h.logger.With(slog.String("method", "Recommend"))
	start := time.Now()
	m := metrics.Get()

	var req types.RecommendRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid recommend request body", slog.Any("error", err))
		span.SetStatus(otelcodes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		span.SetStatus(otelcodes.Error, "Empty query")
		api.ErrorResponse(w, r, http.StatusBadRequest, "query 필드는 비어 있을 수 없습니다")
		return
	}

	travelCourse, err := h.service.Recommend(ctx, req.Query)

	status := http.StatusOK
	defer func() {
		m.RecommendRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
		m.RecommendDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if err != nil {
		status = h.recommendErrorStatus(err)
		l.ErrorContext(ctx, "Recommendation failed",
			slog.Int("status", status),
			slog.Any("error", err),
		)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "Recommendation failed")
		api.ErrorResponse(w, r, status, h.recommendErrorMessage(err))
		return
	}

	l.InfoContext(ctx, "Recommendation completed", slog.Int("course_items", len(travelCourse.Course)))
	span.SetStatus(otelcodes.Ok, "Recommendation completed")
	api.WriteJSONResponse(w, r, http.StatusOK, travelCourse)
}

func (h *Handler) recommendErrorStatus(err error) int {
	var notFound *NoResultsError
	var upstreamErr *tourism.UpstreamError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &upstreamErr):
		if upstreamErr.Unexpected || upstreamErr.StatusCode >= http.StatusInternalServerError {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) recommendErrorMessage(err error) string {
	var notFound *NoResultsError
	var upstreamErr *tourism.UpstreamError
	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &upstreamErr):
		if hint := upstreamErr.RemediationHint(); hint != "" {
			return fmt.Sprintf("공공데이터 API 서버에 일시적인 문제가 발생했습니다. %s (상세: %v)", hint, upstreamErr)
		}
		if upstreamErr.StatusCode >= http.StatusInternalServerError {
			return fmt.Sprintf("공공데이터 API 서버에 일시적인 문제가 발생했습니다. 잠시 후 다시 시도해주세요. (상세: %v)", upstreamErr)
		}
		return fmt.Sprintf("여행지 검색 중 오류가 발생했습니다: %v", upstreamErr)
	default:
		return fmt.Sprintf("코스 추천 중 오류 발생: %v", err)
	}
}

// Root handles GET / with service metadata.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, ServiceInfo{
		Message: "TravelGenie API",
		Version: h.version,
		Endpoints: map[string]string{
			"search":    "/travel/search",
			"recommend": "/travel/recommend",
			"health":    "/health",
			"metrics":   "/metrics",
		},
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}
