package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	database "github.com/jamijombole/travelgenie/app/db"
	"github.com/jamijombole/travelgenie/config"
	generativeAI "github.com/jamijombole/travelgenie/internal/api/generative_ai"
	"github.com/jamijombole/travelgenie/internal/api/rag"
)

// Re-embeds every stored travel document. Run this after changing the
// embedding model or its output dimensionality, so old vectors do not mix
// with new ones in the same index.
func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("Failed to generate database config: %v", err)
	}

	dbpool, err := pgxpool.New(ctx, dbConfig.ConnectionURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Connected to database successfully")

	embeddingService, err := generativeAI.NewEmbeddingService(ctx,
		os.Getenv("GOOGLE_GEMINI_API_KEY"),
		cfg.Gemini.EmbeddingModel, cfg.Gemini.EmbeddingDimensions, logger)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}
	repo := rag.NewPostgresDocumentRepository(dbpool, logger)

	rows, err := dbpool.Query(ctx, `SELECT doc_id, content_id, title, content_type_id, addr, document FROM travel_documents`)
	if err != nil {
		log.Fatalf("Failed to list documents: %v", err)
	}
	defer rows.Close()

	var docs []rag.IndexedDocument
	for rows.Next() {
		var doc rag.IndexedDocument
		if err := rows.Scan(
			&doc.DocID,
			&doc.Metadata.ContentID,
			&doc.Metadata.Title,
			&doc.Metadata.ContentTypeID,
			&doc.Metadata.Addr,
			&doc.Document,
		); err != nil {
			log.Fatalf("Failed to scan document row: %v", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to iterate documents: %v", err)
	}
	logger.Info("Documents loaded", slog.Int("count", len(docs)))

	reindexed := 0
	for _, doc := range docs {
		embedding, err := embeddingService.GenerateEmbedding(ctx, doc.Document)
		if err != nil {
			logger.Error("Failed to embed document, skipping",
				slog.String("doc_id", doc.DocID),
				slog.Any("error", err),
			)
			continue
		}
		if err := repo.UpsertDocument(ctx, doc, embedding); err != nil {
			logger.Error("Failed to upsert document, skipping",
				slog.String("doc_id", doc.DocID),
				slog.Any("error", err),
			)
			continue
		}
		reindexed++
	}

	logger.Info("Reindex complete",
		slog.Int("total", len(docs)),
		slog.Int("reindexed", reindexed),
	)
}
