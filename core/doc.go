// Package core contains the business logic for the Read Aloud API.
// It is designed to be framework-agnostic and can be used independently
// of any web framework or infrastructure concerns.
//
// The core package is organized into several sub-packages:
//
// - domain: The Article record and its status state machine
// - articles: Client operations (submit, retry, list) and the processing orchestrator
// - extract: Heuristic, readability and model-based extraction behind a quality gate
// - speech: Speech synthesis over pluggable streaming providers
// - workers: The run scheduler that executes and cancels processing runs
// - errors: Custom error types for API mapping and recorded run failures
// - interfaces: Contracts for external dependencies (stores, fetcher, cache, logger)
//
// # Design Principles
//
// The core package follows clean architecture principles:
// - No external framework dependencies
// - All external dependencies are injected via interfaces
// - Business logic is testable in isolation
// - Domain models are free from persistence concerns
//
// # Usage Example
//
//	deps := interfaces.Dependencies{
//	    Articles: store,   // implements interfaces.ArticleStore
//	    Blobs:    blobs,   // implements interfaces.BlobStore
//	    Fetcher:  fetcher, // implements interfaces.PageFetcher
//	    Logger:   logger,  // implements interfaces.Logger
//	}
//
//	orchestrator := articles.NewOrchestrator(deps, extractor, synthesizer, articles.DefaultTimeouts())
//	scheduler := workers.NewRunScheduler(func(ctx context.Context, id string, attempt int) {
//	    orchestrator.Run(ctx, id, attempt)
//	}, workers.SchedulerConfig{}, logger)
//	service := articles.NewService(deps, scheduler)
//
//	id, err := service.Submit(ctx, "https://example.com/post")
package core
