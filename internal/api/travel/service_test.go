package travel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jamijombole/travelgenie/app/observability/metrics"
	"github.com/jamijombole/travelgenie/internal/api/intent"
	"github.com/jamijombole/travelgenie/internal/api/tourism"
	"github.com/jamijombole/travelgenie/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

// MockSearchClient is a mock implementation of tourism.SearchClient.
type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) SearchKeyword(ctx context.Context, params tourism.SearchParams) (*tourism.SearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tourism.SearchResult), args.Error(1)
}

// MockRagService is a mock implementation of rag.Service.
type MockRagService struct {
	mock.Mock
}

func (m *MockRagService) IndexVenues(ctx context.Context, items []types.TourismItem) (int, error) {
	args := m.Called(ctx, items)
	return args.Int(0), args.Error(1)
}

func (m *MockRagService) Retrieve(ctx context.Context, query string, k int) ([]types.RetrievedDocument, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RetrievedDocument), args.Error(1)
}

func (m *MockRagService) BuildContext(ctx context.Context, items []types.TourismItem, query string) string {
	args := m.Called(ctx, items, query)
	return args.String(0)
}

// fakeGenerator records its inputs and returns a canned course.
type fakeGenerator struct {
	gotQuery   string
	gotContext string
	gotMaxTime *int
	course     types.TravelCourse
}

func (f *fakeGenerator) Generate(_ context.Context, query, contextText string, maxTimeMinutes *int) types.TravelCourse {
	f.gotQuery = query
	f.gotContext = contextText
	f.gotMaxTime = maxTimeMinutes
	return f.course
}

func setupTravelServiceTest() (*ServiceImpl, *MockSearchClient, *MockRagService, *fakeGenerator) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	searchClient := new(MockSearchClient)
	ragService := new(MockRagService)
	generator := &fakeGenerator{course: types.TravelCourse{
		Course:  []types.CourseItem{{Name: "경복궁", Time: "1시간"}, {Name: "북촌한옥마을", Time: "1시간"}},
		Summary: "서울 역사 코스",
	}}
	service := NewService(intent.NewExtractor(logger), searchClient, ragService, generator, logger)
	return service, searchClient, ragService, generator
}

func venueList(n int) []types.TourismItem {
	items := make([]types.TourismItem, n)
	for i := range items {
		items[i] = types.TourismItem{
			ContentID: fmt.Sprintf("%d", i+1),
			Title:     fmt.Sprintf("장소 %d", i+1),
			Addr1:     "서울 어딘가",
		}
	}
	return items
}

func TestTravelService_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		service, searchClient, ragService, generator := setupTravelServiceTest()
		items := venueList(3)
		searchClient.On("SearchKeyword", mock.Anything, mock.MatchedBy(func(p tourism.SearchParams) bool {
			return p.Region == "서울" && p.Keyword == "야경" && p.NumOfRows == searchRows
		})).Return(&tourism.SearchResult{TotalCount: 3, Items: items}, nil).Once()
		ragService.On("IndexVenues", mock.Anything, mock.Anything).Return(3, nil).Once()
		ragService.On("BuildContext", mock.Anything, mock.Anything, "서울 야경 코스 추천").Return("검색된 여행지:\n- 장소 1").Once()

		course, err := service.Recommend(ctx, "서울 야경 코스 추천")

		require.NoError(t, err)
		assert.Equal(t, "서울 역사 코스", course.Summary)
		assert.Equal(t, "서울 야경 코스 추천", generator.gotQuery)
		assert.Contains(t, generator.gotContext, "검색된 여행지:")
		assert.Contains(t, generator.gotContext, "장소 1")
		searchClient.AssertExpectations(t)
		ragService.AssertExpectations(t)
	})

	t.Run("query without a region is not found", func(t *testing.T) {
		service, searchClient, _, _ := setupTravelServiceTest()

		_, err := service.Recommend(ctx, "그냥 아무데나 가고 싶어")

		var notFound *NoResultsError
		require.ErrorAs(t, err, &notFound)
		searchClient.AssertNotCalled(t, "SearchKeyword")
	})

	t.Run("empty primary search triggers one relaxed retry", func(t *testing.T) {
		service, searchClient, ragService, _ := setupTravelServiceTest()
		searchClient.On("SearchKeyword", mock.Anything, mock.MatchedBy(func(p tourism.SearchParams) bool {
			return p.Keyword == "야경"
		})).Return(&tourism.SearchResult{Items: nil}, nil).Once()
		searchClient.On("SearchKeyword", mock.Anything, mock.MatchedBy(func(p tourism.SearchParams) bool {
			return p.Keyword == intent.DefaultKeyword
		})).Return(&tourism.SearchResult{TotalCount: 2, Items: venueList(2)}, nil).Once()
		ragService.On("IndexVenues", mock.Anything, mock.Anything).Return(2, nil).Once()
		ragService.On("BuildContext", mock.Anything, mock.Anything, mock.Anything).Return("").Once()

		_, err := service.Recommend(ctx, "서울 야경")

		require.NoError(t, err)
		searchClient.AssertExpectations(t)
	})

	t.Run("both searches empty map to not found with region and keyword", func(t *testing.T) {
		service, searchClient, _, _ := setupTravelServiceTest()
		searchClient.On("SearchKeyword", mock.Anything, mock.Anything).
			Return(&tourism.SearchResult{Items: nil}, nil).Twice()

		_, err := service.Recommend(ctx, "서울 야경")

		var notFound *NoResultsError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "서울", notFound.Region)
		assert.Equal(t, "야경", notFound.Keyword)
		assert.Contains(t, notFound.Error(), "'서울'에서 '야경'")
	})

	t.Run("primary search failure halts the pipeline", func(t *testing.T) {
		service, searchClient, ragService, _ := setupTravelServiceTest()
		upstreamErr := &tourism.UpstreamError{Kind: tourism.KindTransport, StatusCode: http.StatusBadGateway}
		searchClient.On("SearchKeyword", mock.Anything, mock.Anything).Return(nil, upstreamErr).Once()

		_, err := service.Recommend(ctx, "서울 야경")

		var gotErr *tourism.UpstreamError
		require.ErrorAs(t, err, &gotErr)
		ragService.AssertNotCalled(t, "IndexVenues")
	})

	t.Run("relaxed search failure resolves to not found", func(t *testing.T) {
		service, searchClient, _, _ := setupTravelServiceTest()
		searchClient.On("SearchKeyword", mock.Anything, mock.MatchedBy(func(p tourism.SearchParams) bool {
			return p.Keyword == "야경"
		})).Return(&tourism.SearchResult{Items: nil}, nil).Once()
		searchClient.On("SearchKeyword", mock.Anything, mock.MatchedBy(func(p tourism.SearchParams) bool {
			return p.Keyword == intent.DefaultKeyword
		})).Return(nil, &tourism.UpstreamError{Kind: tourism.KindProtocol}).Once()

		_, err := service.Recommend(ctx, "서울 야경")

		var notFound *NoResultsError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("filtered-out candidates fall back to the unfiltered head", func(t *testing.T) {
		service, searchClient, ragService, _ := setupTravelServiceTest()
		// 15 venues, none matching the 데이트 theme keywords.
		items := venueList(15)
		searchClient.On("SearchKeyword", mock.Anything, mock.Anything).
			Return(&tourism.SearchResult{TotalCount: 15, Items: items}, nil).Once()
		ragService.On("IndexVenues", mock.Anything, mock.MatchedBy(func(got []types.TourismItem) bool {
			return len(got) == candidateLimit && got[0].ContentID == "1"
		})).Return(candidateLimit, nil).Once()
		ragService.On("BuildContext", mock.Anything, mock.Anything, mock.Anything).Return("").Once()

		_, err := service.Recommend(ctx, "서울 데이트")

		require.NoError(t, err)
		ragService.AssertExpectations(t)
	})

	t.Run("index write failure does not block the recommendation", func(t *testing.T) {
		service, searchClient, ragService, _ := setupTravelServiceTest()
		searchClient.On("SearchKeyword", mock.Anything, mock.Anything).
			Return(&tourism.SearchResult{TotalCount: 2, Items: venueList(2)}, nil).Once()
		ragService.On("IndexVenues", mock.Anything, mock.Anything).
			Return(0, errors.New("2 of 2 index writes failed")).Once()
		ragService.On("BuildContext", mock.Anything, mock.Anything, mock.Anything).Return("").Once()

		course, err := service.Recommend(ctx, "서울 야경")

		require.NoError(t, err)
		assert.NotEmpty(t, course.Course)
	})

	t.Run("time budget is handed to the generator", func(t *testing.T) {
		service, searchClient, ragService, generator := setupTravelServiceTest()
		searchClient.On("SearchKeyword", mock.Anything, mock.Anything).
			Return(&tourism.SearchResult{TotalCount: 1, Items: venueList(1)}, nil).Once()
		ragService.On("IndexVenues", mock.Anything, mock.Anything).Return(1, nil).Once()
		ragService.On("BuildContext", mock.Anything, mock.Anything, mock.Anything).Return("").Once()

		_, err := service.Recommend(ctx, "서울에서 반나절 여행")

		require.NoError(t, err)
		require.NotNil(t, generator.gotMaxTime)
		assert.Equal(t, 240, *generator.gotMaxTime)
	})
}

func TestTravelService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the request through", func(t *testing.T) {
		service, searchClient, _, _ := setupTravelServiceTest()
		region := "부산"
		keyword := "해변"
		searchClient.On("SearchKeyword", mock.Anything, tourism.SearchParams{
			Region: "부산", Keyword: "해변", NumOfRows: 5,
		}).Return(&tourism.SearchResult{TotalCount: 1, Items: venueList(1)}, nil).Once()

		resp, err := service.Search(ctx, types.SearchRequest{Region: &region, Keyword: &keyword, NumOfRows: 5})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.TotalCount)
		require.Len(t, resp.Items, 1)
		searchClient.AssertExpectations(t)
	})

	t.Run("upstream failure surfaces", func(t *testing.T) {
		service, searchClient, _, _ := setupTravelServiceTest()
		searchClient.On("SearchKeyword", mock.Anything, mock.Anything).
			Return(nil, &tourism.UpstreamError{Kind: tourism.KindTransport}).Once()

		_, err := service.Search(ctx, types.SearchRequest{})
		require.Error(t, err)
	})
}
