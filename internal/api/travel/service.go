package travel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jamijombole/travelgenie/app/observability/metrics"
	"github.com/jamijombole/travelgenie/internal/api/course"
	"github.com/jamijombole/travelgenie/internal/api/filter"
	"github.com/jamijombole/travelgenie/internal/api/intent"
	"github.com/jamijombole/travelgenie/internal/api/rag"
	"github.com/jamijombole/travelgenie/internal/api/tourism"
	"github.com/jamijombole/travelgenie/internal/types"
)

const (
	searchRows       = 20
	candidateLimit   = 10
	fallbackRegionKo = "선택한 지역"
)

// NoResultsError is the legitimate empty outcome after both the primary and
// the relaxed search: not a fault, but worth a 404 naming what was tried.
type NoResultsError struct {
	Region  string
	Keyword string
}

func (e *NoResultsError) Error() string {
	region := e.Region
	if region == "" {
		region = fallbackRegionKo
	}
	return fmt.Sprintf("'%s'에서 '%s' 관련 여행지 검색 결과가 없습니다. 다른 지역이나 키워드로 시도해주세요.", region, e.Keyword)
}

// CourseGenerator is the generation boundary; course.Generator satisfies it
// and tests substitute a scripted fake.
type CourseGenerator interface {
	Generate(ctx context.Context, query, contextText string, maxTimeMinutes *int) types.TravelCourse
}

var _ CourseGenerator = (*course.Generator)(nil)

var _ Service = (*ServiceImpl)(nil)

// Service sequences the recommendation pipeline per request.
type Service interface {
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error)
	Recommend(ctx context.Context, query string) (*types.TravelCourse, error)
}

// ServiceImpl wires extractor, search client, filter, semantic index and
// generator. All collaborators are injected once at startup.
type ServiceImpl struct {
	logger       *slog.Logger
	extractor    *intent.Extractor
	searchClient tourism.SearchClient
	ragService   rag.Service
	generator    CourseGenerator
}

func NewService(
	extractor *intent.Extractor,
	searchClient tourism.SearchClient,
	ragService rag.Service,
	generator CourseGenerator,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		extractor:    extractor,
		searchClient: searchClient,
		ragService:   ragService,
		generator:    generator,
	}
}

// Search exposes the raw venue search.
func (s *ServiceImpl) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error) {
	ctx, span := otel.Tracer("TravelService").Start(ctx, "Search")
	defer span.End()

	params := tourism.SearchParams{NumOfRows: req.NumOfRows}
	if req.Region != nil {
		params.Region = *req.Region
	}
	if req.Keyword != nil {
		params.Keyword = *req.Keyword
	}

	result, err := s.searchClient.SearchKeyword(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Venue search failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Venue search completed")
	return &types.SearchResponse{
		TotalCount: result.TotalCount,
		Items:      result.Items,
	}, nil
}

// Recommend runs the full pipeline: extract intent, search (with one relaxed
// retry), filter, index, retrieve, generate. Only search-stage failures and
// the not-found condition surface as errors; everything after filtering
// degrades internally so a found venue set always yields a usable course.
func (s *ServiceImpl) Recommend(ctx context.Context, query string) (*types.TravelCourse, error) {
	ctx, span := otel.Tracer("TravelService").Start(ctx, "Recommend")
	defer span.End()

	runID := uuid.New().String()
	l := s.logger.With(
		slog.String("method", "Recommend"),
		slog.String("run_id", runID),
	)
	span.SetAttributes(attribute.String("recommend.run_id", runID))

	queryIntent, keyword := s.extractor.Extract(query)

	region := ""
	if queryIntent.Region != nil {
		region = *queryIntent.Region
	}
	l.InfoContext(ctx, "Intent extracted",
		slog.String("region", region),
		slog.String("keyword", keyword),
	)

	items, err := s.searchVenues(ctx, l, region, keyword)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Venue search failed")
		return nil, err
	}
	if len(items) == 0 {
		span.SetStatus(codes.Error, "No venues found")
		return nil, &NoResultsError{Region: region, Keyword: keyword}
	}

	candidates := filter.Apply(items, queryIntent)
	if len(candidates) == 0 {
		// Never-empty guarantee: fall back to the unfiltered head.
		candidates = items
	}
	if len(candidates) > candidateLimit {
		candidates = candidates[:candidateLimit]
	}
	l.InfoContext(ctx, "Candidates filtered",
		slog.Int("searched", len(items)),
		slog.Int("candidates", len(candidates)),
	)

	// Index writes are best-effort enrichment and never halt the pipeline.
	if written, err := s.ragService.IndexVenues(ctx, candidates); err != nil {
		metrics.Get().IndexWriteErrorsTotal.Add(ctx, 1)
		l.WarnContext(ctx, "Index upsert partially failed",
			slog.Int("written", written),
			slog.Any("error", err),
		)
	}

	ragContext := s.ragService.BuildContext(ctx, candidates, query)
	itemsContext := course.FormatItemsForContext(candidates)
	fullContext := ragContext + "\n\n" + itemsContext

	travelCourse := s.generator.Generate(ctx, query, fullContext, queryIntent.MaxTimeMinutes)

	span.SetAttributes(attribute.Int("course.items", len(travelCourse.Course)))
	span.SetStatus(codes.Ok, "Course recommended")
	return &travelCourse, nil
}

// searchVenues runs the primary search and, when it comes back empty, one
// relaxed retry with the generic keyword. A primary failure halts; a relaxed
// failure is reported in the logs but resolves to the empty result so the
// caller can answer not-found instead of masking what was attempted.
func (s *ServiceImpl) searchVenues(ctx context.Context, l *slog.Logger, region, keyword string) ([]types.TourismItem, error) {
	if region == "" {
		// Nothing to search on; the caller turns this into not-found.
		return nil, nil
	}

	result, err := s.searchClient.SearchKeyword(ctx, tourism.SearchParams{
		Region:    region,
		Keyword:   keyword,
		NumOfRows: searchRows,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Items) > 0 {
		return result.Items, nil
	}

	if keyword == intent.DefaultKeyword {
		return nil, nil
	}

	l.InfoContext(ctx, "Primary search empty, retrying with generic keyword",
		slog.String("region", region),
		slog.String("keyword", keyword),
	)
	relaxed, err := s.searchClient.SearchKeyword(ctx, tourism.SearchParams{
		Region:    region,
		Keyword:   intent.DefaultKeyword,
		NumOfRows: searchRows,
	})
	if err != nil {
		var upstreamErr *tourism.UpstreamError
		if errors.As(err, &upstreamErr) {
			l.WarnContext(ctx, "Relaxed search failed",
				slog.String("kind", upstreamErr.Kind.String()),
				slog.Any("error", err),
			)
			return nil, nil
		}
		return nil, err
	}
	return relaxed.Items, nil
}
