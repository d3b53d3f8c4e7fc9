// ABOUTME: Dependencies container provides dependency injection for core services
// ABOUTME: Defines the contract for dependencies required by the core business logic

package interfaces

// Dependencies holds all external dependencies required by the core business logic
type Dependencies struct {
	// Articles is the record store backing the state machine
	Articles ArticleStore

	// Blobs stores synthesized audio
	Blobs BlobStore

	// Fetcher retrieves raw pages
	Fetcher PageFetcher

	// Logger provides structured logging
	Logger Logger

	// Metrics records pipeline observations; nil means NopMetrics
	Metrics PipelineMetrics
}
