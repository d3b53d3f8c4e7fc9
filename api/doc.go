// Package api provides the HTTP API layer for the Read Aloud service.
// It uses the Huma framework to provide automatic OpenAPI documentation,
// request/response validation, and a clean handler interface.
//
// # Architecture
//
// The API package is structured as follows:
//
// - server.go: Huma API configuration, middleware and route registration
// - handlers/: HTTP request handlers
// - dto/: Data Transfer Objects for requests and responses
// - middleware/: HTTP middleware for cross-cutting concerns
//
// # Endpoints
//
//	POST /articles            submit a URL, 202 with the article id
//	POST /articles/{id}/retry reset and reprocess, 202 with the article id
//	GET  /articles            every article, newest first
//	GET  /articles/{id}       one article
//	GET  /audio/{ref}         synthesized audio
//	GET  /healthz             liveness
//	GET  /metrics             Prometheus metrics, when enabled
//
// Processing is asynchronous: clients poll the article until its status
// leaves "processing". A completed article carries audioUrl; an errored one
// carries errorMessage.
//
// # Middleware
//
// - CORS via rs/cors
// - Request logging with request ids, optionally reporting to metrics
// - Token bucket rate limiting per client IP
//
// # Usage Example
//
//	humaAPI, router := api.NewAPI(api.APIConfig{
//	    Logger:      logger,
//	    RateLimiter: middleware.NewRateLimiter(10, 20),
//	})
//	api.RegisterRoutes(humaAPI, articleService)
//	http.ListenAndServe(":8000", router)
//
// # Error Handling
//
// The API uses a consistent error format based on RFC 7807:
//
//	{
//	    "status": 409,
//	    "title": "Conflict",
//	    "detail": "article with url \"https://example.com\" already exists"
//	}
//
// Domain errors are mapped to HTTP status codes in handlers/errors.go.
package api
