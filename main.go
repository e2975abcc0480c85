package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/jamijombole/travelgenie/app/db"
	appLogger "github.com/jamijombole/travelgenie/app/logger"
	"github.com/jamijombole/travelgenie/app/observability/metrics"
	"github.com/jamijombole/travelgenie/app/tracer"
	"github.com/jamijombole/travelgenie/config"
	"github.com/jamijombole/travelgenie/internal/api/course"
	generativeAI "github.com/jamijombole/travelgenie/internal/api/generative_ai"
	"github.com/jamijombole/travelgenie/internal/api/intent"
	"github.com/jamijombole/travelgenie/internal/api/rag"
	"github.com/jamijombole/travelgenie/internal/api/tourism"
	"github.com/jamijombole/travelgenie/internal/api/travel"
	api "github.com/jamijombole/travelgenie/internal/router"
)

const version = "1.0.0"

func main() {
	// Use standard log until slog is configured, in case godotenv fails.
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := tracer.InitTracingAndMetrics("TravelGenie"); err != nil {
		logger.Error("Failed to initialize tracing and metrics", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()

	// --- Database (semantic index backend) ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Dependency injection ---
	geminiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	tourismKey := os.Getenv("TOURISM_API_KEY")

	aiClient, err := generativeAI.NewAIClient(ctx, geminiKey, cfg.Gemini.Model)
	if err != nil {
		logger.Error("Failed to create AI client", slog.Any("error", err))
		os.Exit(1)
	}
	embeddingService, err := generativeAI.NewEmbeddingService(ctx, geminiKey,
		cfg.Gemini.EmbeddingModel, cfg.Gemini.EmbeddingDimensions, logger)
	if err != nil {
		logger.Error("Failed to create embedding service", slog.Any("error", err))
		os.Exit(1)
	}

	extractor := intent.NewExtractor(logger)
	searchClient := tourism.NewHTTPSearchClient(cfg.Tourism.URL, tourismKey, logger)
	documentRepo := rag.NewPostgresDocumentRepository(pool, logger)
	ragService := rag.NewService(documentRepo, embeddingService, cfg.Rag.TopK, logger)
	generator := course.NewGenerator(aiClient, cfg.Gemini.Temperature, cfg.Gemini.GenerationTimeout, logger)
	travelService := travel.NewService(extractor, searchClient, ragService, generator, logger)
	travelHandler := travel.NewHandler(travelService, version, logger)

	// --- Router ---
	mainRouter := api.SetupRouter(&api.Config{TravelHandler: travelHandler})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", mainRouter)

	// --- HTTP server ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
