package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jamijombole/travelgenie/internal/types"
)

const (
	// DefaultTopK is the retrieval depth when the caller does not specify one.
	DefaultTopK = 3

	embedCacheTTL   = 24 * time.Hour
	embedCacheSweep = time.Hour
	upsertWorkers   = 4
	contextListSize = 5
)

// Embedder turns text into a dense vector. Satisfied by
// generativeAI.EmbeddingService; tests substitute a fake.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service is the semantic index boundary used by the orchestrator. The index
// is a best-effort enrichment layer: IndexVenues reports write failures but
// callers never halt on them, and Retrieve's error carries diagnostics while
// an empty result remains a valid answer.
type Service interface {
	IndexVenues(ctx context.Context, items []types.TourismItem) (int, error)
	Retrieve(ctx context.Context, query string, k int) ([]types.RetrievedDocument, error)
	BuildContext(ctx context.Context, items []types.TourismItem, query string) string
}

// ServiceImpl embeds and stores venue documents and assembles generation
// context from retrieval hits.
type ServiceImpl struct {
	logger     *slog.Logger
	repo       DocumentRepository
	embedder   Embedder
	embedCache *gocache.Cache
	topK       int
}

func NewService(repo DocumentRepository, embedder Embedder, topK int, logger *slog.Logger) *ServiceImpl {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		embedder:   embedder,
		embedCache: gocache.New(embedCacheTTL, embedCacheSweep),
		topK:       topK,
	}
}

// IndexVenues upserts every venue that carries a content id. It returns how
// many documents were written and a non-nil error when at least one write
// failed; a partial failure never aborts the remaining writes.
func (s *ServiceImpl) IndexVenues(ctx context.Context, items []types.TourismItem) (int, error) {
	ctx, span := otel.Tracer("RagService").Start(ctx, "IndexVenues")
	defer span.End()

	l := s.logger.With(slog.String("method", "IndexVenues"))

	docs := make([]IndexedDocument, 0, len(items))
	for _, item := range items {
		if doc, ok := NewIndexedDocument(item); ok {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return 0, nil
	}

	var (
		indexed  = make(chan struct{}, len(docs))
		failures = make(chan error, len(docs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertWorkers)
	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			embedding, err := s.embed(gctx, doc.Document)
			if err == nil {
				err = s.repo.UpsertDocument(gctx, doc, embedding)
			}
			if err != nil {
				l.WarnContext(gctx, "Index write failed",
					slog.String("doc_id", doc.DocID),
					slog.Any("error", err),
				)
				failures <- fmt.Errorf("%s: %w", doc.DocID, err)
				return nil // a single write failure must not cancel the batch
			}
			indexed <- struct{}{}
			return nil
		})
	}
	_ = g.Wait()
	close(indexed)
	close(failures)

	count := len(indexed)
	span.SetAttributes(
		attribute.Int("index.written", count),
		attribute.Int("index.failed", len(failures)),
	)
	if n := len(failures); n > 0 {
		first := <-failures
		span.SetStatus(codes.Error, "Some index writes failed")
		return count, fmt.Errorf("%d of %d index writes failed (first: %w)", n, len(docs), first)
	}
	span.SetStatus(codes.Ok, "Venues indexed")
	return count, nil
}

// Retrieve runs a similarity search for the query. Both return values can be
// meaningfully inspected: an error signals a backend failure, while (nil,
// nil) is a legitimate empty result.
func (s *ServiceImpl) Retrieve(ctx context.Context, query string, k int) ([]types.RetrievedDocument, error) {
	ctx, span := otel.Tracer("RagService").Start(ctx, "Retrieve", trace.WithAttributes(
		attribute.Int("retrieve.k", k),
	))
	defer span.End()

	if k <= 0 {
		k = s.topK
	}

	embedding, err := s.embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Query embedding failed")
		return nil, fmt.Errorf("failed to embed retrieval query: %w", err)
	}

	docs, err := s.repo.QuerySimilar(ctx, embedding, k)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Similarity search failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(docs)))
	span.SetStatus(codes.Ok, "Documents retrieved")
	return docs, nil
}

// BuildContext assembles the generation context: retrieved document texts
// followed by a short listing of the top filtered candidates. The listing is
// always present, so a cold or failing index never leaves the generator
// without material.
func (s *ServiceImpl) BuildContext(ctx context.Context, items []types.TourismItem, query string) string {
	l := s.logger.With(slog.String("method", "BuildContext"))

	var parts []string
	docs, err := s.Retrieve(ctx, query, s.topK)
	if err != nil {
		l.WarnContext(ctx, "Retrieval failed, continuing with candidate listing only", slog.Any("error", err))
	}
	for _, doc := range docs {
		parts = append(parts, doc.Document)
	}

	var listing []string
	for i, item := range items {
		if i >= contextListSize {
			break
		}
		addr := item.Addr1
		if addr == "" {
			addr = item.Addr2
		}
		listing = append(listing, fmt.Sprintf("- %s (%s)", item.Title, addr))
	}
	if len(listing) > 0 {
		parts = append(parts, "검색된 여행지:\n"+strings.Join(listing, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

// embed consults the in-process cache before calling the embedding model, so
// unchanged venue documents are not re-embedded on every request.
func (s *ServiceImpl) embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := s.embedCache.Get(text); ok {
		return cached.([]float32), nil
	}
	embedding, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	s.embedCache.Set(text, embedding, gocache.DefaultExpiration)
	return embedding, nil
}
