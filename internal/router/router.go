package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jamijombole/travelgenie/internal/api/travel"
)

// Config contains the handlers needed for the router setup.
type Config struct {
	TravelHandler *travel.Handler
}

// SetupRouter wires the application routes. Server-wide middleware (logger,
// requestID, recoverer) is applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	// The API is consumed by browser frontends on arbitrary origins.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", cfg.TravelHandler.Root)
	r.Get("/health", cfg.TravelHandler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/travel", func(r chi.Router) {
		r.Post("/search", cfg.TravelHandler.Search)
		r.Post("/recommend", cfg.TravelHandler.Recommend)
	})

	return r
}
