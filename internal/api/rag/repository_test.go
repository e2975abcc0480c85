package rag

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamijombole/travelgenie/internal/types"
)

func setupRepositoryTest(t *testing.T) (*PostgresDocumentRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewPostgresDocumentRepository(mockPool, logger), mockPool
}

func TestNewIndexedDocument(t *testing.T) {
	t.Run("renders the document text", func(t *testing.T) {
		doc, ok := NewIndexedDocument(types.TourismItem{
			ContentID: "126508",
			Title:     "경복궁",
			Addr1:     "서울특별시 종로구 사직로 161",
			Tel:       "02-3700-3900",
		})

		require.True(t, ok)
		assert.Equal(t, "tourism_126508", doc.DocID)
		assert.Equal(t, "여행지명: 경복궁\n주소: 서울특별시 종로구 사직로 161\n전화번호: 02-3700-3900", doc.Document)
		assert.Equal(t, "126508", doc.Metadata.ContentID)
	})

	t.Run("falls back to addr2", func(t *testing.T) {
		doc, ok := NewIndexedDocument(types.TourismItem{ContentID: "1", Title: "곳", Addr2: "지번 주소"})

		require.True(t, ok)
		assert.Equal(t, "지번 주소", doc.Metadata.Addr)
	})

	t.Run("venue without content id cannot be keyed", func(t *testing.T) {
		_, ok := NewIndexedDocument(types.TourismItem{Title: "이름만 있는 곳"})
		assert.False(t, ok)
	})
}

func TestPostgresDocumentRepository_UpsertDocument(t *testing.T) {
	ctx := context.Background()
	doc := IndexedDocument{
		DocID:    "tourism_126508",
		Document: "여행지명: 경복궁\n주소: 서울\n전화번호: ",
		Metadata: types.DocumentMetadata{ContentID: "126508", Title: "경복궁", ContentTypeID: "12", Addr: "서울"},
	}
	embedding := []float32{0.1, 0.2, 0.3}

	t.Run("success", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("INSERT INTO travel_documents").
			WithArgs(doc.DocID, "126508", "경복궁", "12", "서울", doc.Document, vectorLiteral(embedding)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.UpsertDocument(ctx, doc, embedding)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("database error is wrapped with the doc id", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("INSERT INTO travel_documents").
			WithArgs(doc.DocID, "126508", "경복궁", "12", "서울", doc.Document, vectorLiteral(embedding)).
			WillReturnError(errors.New("connection reset"))

		err := repo.UpsertDocument(ctx, doc, embedding)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tourism_126508")
	})
}

func TestPostgresDocumentRepository_QuerySimilar(t *testing.T) {
	ctx := context.Background()
	embedding := []float32{0.1, 0.2}

	t.Run("returns documents ordered by the backend", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		rows := pgxmock.NewRows([]string{"document", "content_id", "title", "content_type_id", "addr", "distance"}).
			AddRow("여행지명: 경복궁", "126508", "경복궁", "12", "서울", 0.12).
			AddRow("여행지명: 남산서울타워", "126535", "남산서울타워", "12", "서울", 0.34)
		mockPool.ExpectQuery("SELECT").
			WithArgs(vectorLiteral(embedding), 2).
			WillReturnRows(rows)

		docs, err := repo.QuerySimilar(ctx, embedding, 2)

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "경복궁", docs[0].Metadata.Title)
		assert.InDelta(t, 0.12, docs[0].Distance, 1e-9)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("empty index yields no documents", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("SELECT").
			WithArgs(vectorLiteral(embedding), 3).
			WillReturnRows(pgxmock.NewRows([]string{"document", "content_id", "title", "content_type_id", "addr", "distance"}))

		docs, err := repo.QuerySimilar(ctx, embedding, 3)

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("query failure", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("SELECT").
			WithArgs(vectorLiteral(embedding), 3).
			WillReturnError(errors.New("relation does not exist"))

		_, err := repo.QuerySimilar(ctx, embedding, 3)
		require.Error(t, err)
	})
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[0.500000,-1.000000]", vectorLiteral([]float32{0.5, -1}))
	assert.Equal(t, "[]", vectorLiteral(nil))
}
