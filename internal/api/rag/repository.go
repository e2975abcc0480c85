package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jamijombole/travelgenie/internal/types"
)

// IndexedDocument is one venue rendered for the semantic index. DocID is a
// pure function of the venue's content id ("tourism_<id>"), so re-upserting
// the same venue replaces its prior content.
type IndexedDocument struct {
	DocID    string
	Document string
	Metadata types.DocumentMetadata
}

// NewIndexedDocument renders a venue into its index form. It returns false
// when the venue has no content id and therefore cannot be keyed.
func NewIndexedDocument(item types.TourismItem) (IndexedDocument, bool) {
	if item.ContentID == "" {
		return IndexedDocument{}, false
	}
	addr := item.Addr1
	if addr == "" {
		addr = item.Addr2
	}
	doc := fmt.Sprintf("여행지명: %s\n주소: %s\n전화번호: %s", item.Title, addr, item.Tel)
	return IndexedDocument{
		DocID:    "tourism_" + item.ContentID,
		Document: doc,
		Metadata: types.DocumentMetadata{
			ContentID:     item.ContentID,
			Title:         item.Title,
			ContentTypeID: item.ContentTypeID,
			Addr:          addr,
		},
	}, true
}

// PgxPool is the subset of pgxpool.Pool the repository needs; it also matches
// pgxmock's pool interface so tests can run against a mock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DocumentRepository = (*PostgresDocumentRepository)(nil)

// DocumentRepository is the persistence boundary of the semantic index.
type DocumentRepository interface {
	UpsertDocument(ctx context.Context, doc IndexedDocument, embedding []float32) error
	QuerySimilar(ctx context.Context, embedding []float32, limit int) ([]types.RetrievedDocument, error)
}

// PostgresDocumentRepository stores documents and their pgvector embeddings.
type PostgresDocumentRepository struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresDocumentRepository(pgpool PgxPool, logger *slog.Logger) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{
		logger: logger,
		pgpool: pgpool,
	}
}

// UpsertDocument inserts or replaces the document row keyed by its doc id.
func (r *PostgresDocumentRepository) UpsertDocument(ctx context.Context, doc IndexedDocument, embedding []float32) error {
	ctx, span := otel.Tracer("RagRepository").Start(ctx, "UpsertDocument", trace.WithAttributes(
		attribute.String("doc.id", doc.DocID),
		attribute.Int("embedding.dimension", len(embedding)),
	))
	defer span.End()

	query := `
        INSERT INTO travel_documents (
            doc_id, content_id, title, content_type_id, addr, document, embedding, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7::vector, now())
        ON CONFLICT (doc_id) DO UPDATE SET
            title = EXCLUDED.title,
            content_type_id = EXCLUDED.content_type_id,
            addr = EXCLUDED.addr,
            document = EXCLUDED.document,
            embedding = EXCLUDED.embedding,
            updated_at = now()
    `
	_, err := r.pgpool.Exec(ctx, query,
		doc.DocID,
		doc.Metadata.ContentID,
		doc.Metadata.Title,
		doc.Metadata.ContentTypeID,
		doc.Metadata.Addr,
		doc.Document,
		vectorLiteral(embedding),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upsert failed")
		return fmt.Errorf("failed to upsert document %s: %w", doc.DocID, err)
	}

	span.SetStatus(codes.Ok, "Document upserted")
	return nil
}

// QuerySimilar returns up to limit documents ordered by cosine distance to
// the query embedding.
func (r *PostgresDocumentRepository) QuerySimilar(ctx context.Context, embedding []float32, limit int) ([]types.RetrievedDocument, error) {
	ctx, span := otel.Tracer("RagRepository").Start(ctx, "QuerySimilar", trace.WithAttributes(
		attribute.Int("embedding.dimension", len(embedding)),
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "QuerySimilar"))

	query := `
        SELECT
            document,
            content_id,
            title,
            content_type_id,
            addr,
            embedding <=> $1::vector AS distance
        FROM travel_documents
        WHERE embedding IS NOT NULL
        ORDER BY embedding <=> $1::vector
        LIMIT $2
    `
	rows, err := r.pgpool.Query(ctx, query, vectorLiteral(embedding), limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query similar documents", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Similarity query failed")
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	var docs []types.RetrievedDocument
	for rows.Next() {
		var doc types.RetrievedDocument
		if err := rows.Scan(
			&doc.Document,
			&doc.Metadata.ContentID,
			&doc.Metadata.Title,
			&doc.Metadata.ContentTypeID,
			&doc.Metadata.Addr,
			&doc.Distance,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(docs)))
	span.SetStatus(codes.Ok, "Similar documents found")
	return docs, nil
}

// vectorLiteral renders a float slice in pgvector's input syntax.
func vectorLiteral(embedding []float32) string {
	strs := make([]string, len(embedding))
	for i, v := range embedding {
		strs[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(strs, ",") + "]"
}
