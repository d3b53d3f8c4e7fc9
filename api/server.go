// ABOUTME: Huma API server configuration and setup
// ABOUTME: Wires CORS, request logging, rate limiting and the metrics endpoint around the router

package api

import (
	"net/http"

	"readaloud-api/api/handlers"
	"readaloud-api/api/middleware"
	"readaloud-api/core/interfaces"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

const (
	// Title is the OpenAPI title of the service
	Title = "Read Aloud API"

	// Version is the OpenAPI version of the service
	Version = "1.0.0"
)

// APIConfig holds configuration for the API
type APIConfig struct {
	Logger interfaces.Logger

	// CORSOrigins lists allowed origins; empty allows all
	CORSOrigins []string

	// RateLimiter limits requests per client when set
	RateLimiter *middleware.RateLimiter

	// Observer receives per-request measurements when set
	Observer middleware.RequestObserver

	// MetricsHandler is mounted on /metrics when set
	MetricsHandler http.Handler
}

// NewAPI creates and configures a new Huma API instance with middleware
func NewAPI(cfg APIConfig) (huma.API, chi.Router) {
	router := chi.NewRouter()

	// CORS should be first so preflight requests are answered without limits
	router.Use(newCORS(cfg.CORSOrigins).Handler)

	if cfg.Logger != nil {
		router.Use(middleware.RequestObservingMiddleware(cfg.Logger, cfg.Observer))
	}

	if cfg.RateLimiter != nil {
		router.Use(middleware.RateLimitMiddleware(cfg.RateLimiter))
	}

	config := huma.DefaultConfig(Title, Version)
	config.Info.Description = "Turns articles into spoken audio: submit a URL, poll its status, play the result"

	api := humachi.New(router, config)

	if cfg.MetricsHandler != nil {
		router.Handle("/metrics", cfg.MetricsHandler)
	}

	// The OpenAPI spec is automatically available at /openapi.json
	// The Swagger UI is automatically available at /docs

	return api, router
}

// RegisterRoutes registers every handler on api
func RegisterRoutes(api huma.API, service interfaces.ArticleService) {
	handlers.NewHealthHandler().RegisterRoutes(api)
	handlers.NewArticleHandler(service).RegisterRoutes(api)
	handlers.NewAudioHandler(service).RegisterRoutes(api)
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After", "X-RateLimit-Limit"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	})
}
