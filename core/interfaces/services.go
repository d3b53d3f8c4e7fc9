// ABOUTME: Service interfaces for the core business logic
// ABOUTME: Defines contracts for extraction, speech synthesis, scheduling and metrics

package interfaces

import (
	"context"
	"time"

	"readaloud-api/core/domain"
)

// Extractor turns raw page markup into a title and plain-text body
type Extractor interface {
	Extract(ctx context.Context, markup string, sourceURL string) (domain.Extraction, error)
}

// SpeechSynthesizer converts cleaned text into a complete audio buffer
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// RunScheduler starts asynchronous processing runs
type RunScheduler interface {
	// Schedule starts a run of articleID bound to attempt. Any run of the
	// same article still in flight is cancelled.
	Schedule(articleID string, attempt int) error
}

// PipelineMetrics records pipeline observations
type PipelineMetrics interface {
	ObserveStage(stage string, duration time.Duration, err error)
	RunFinished(outcome string)
	ExtractionTier(tier string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) ObserveStage(string, time.Duration, error) {}
func (NopMetrics) RunFinished(string)                        {}
func (NopMetrics) ExtractionTier(string)                     {}

// ArticleService is the client-facing set of article operations
type ArticleService interface {
	// Submit creates an article for url and schedules its first run
	Submit(ctx context.Context, url string) (string, error)

	// Retry resets a finished article and schedules a new run
	Retry(ctx context.Context, id string) (string, error)

	List(ctx context.Context) ([]domain.ArticleView, error)
	Get(ctx context.Context, id string) (domain.ArticleView, error)

	// Audio returns the stored audio bytes for a blob reference
	Audio(ctx context.Context, ref string) ([]byte, error)
}
