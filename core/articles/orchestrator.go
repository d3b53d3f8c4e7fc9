// ABOUTME: Processing orchestrator runs one article through fetch, extract, synthesize and store
// ABOUTME: Every stage has its own deadline and every failure is recorded on the article, never returned

package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "readaloud-api/core/errors"
	"readaloud-api/core/interfaces"
)

// UnknownErrorMessage is recorded when a failure carries no message
const UnknownErrorMessage = "Unknown error occurred"

var errArticleMissing = errors.New("Article not found")

// Outcome is how a run ended
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeError      Outcome = "error"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeStale      Outcome = "stale"
)

// Timeouts bounds each pipeline stage. Zero disables the deadline.
type Timeouts struct {
	Fetch      time.Duration
	Extract    time.Duration
	Synthesize time.Duration
	Store      time.Duration
}

// DefaultTimeouts returns the stage deadlines used when none are configured
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Fetch:      30 * time.Second,
		Extract:    60 * time.Second,
		Synthesize: 120 * time.Second,
		Store:      30 * time.Second,
	}
}

// Orchestrator executes processing runs
type Orchestrator struct {
	articles    interfaces.ArticleStore
	blobs       interfaces.BlobStore
	fetcher     interfaces.PageFetcher
	extractor   interfaces.Extractor
	synthesizer interfaces.SpeechSynthesizer
	logger      interfaces.Logger
	metrics     interfaces.PipelineMetrics
	timeouts    Timeouts
}

// NewOrchestrator creates an orchestrator from the shared dependencies and
// the pipeline's extraction and synthesis components
func NewOrchestrator(deps interfaces.Dependencies, extractor interfaces.Extractor, synthesizer interfaces.SpeechSynthesizer, timeouts Timeouts) *Orchestrator {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = interfaces.NopMetrics{}
	}
	return &Orchestrator{
		articles:    deps.Articles,
		blobs:       deps.Blobs,
		fetcher:     deps.Fetcher,
		extractor:   extractor,
		synthesizer: synthesizer,
		logger:      deps.Logger,
		metrics:     metrics,
		timeouts:    timeouts,
	}
}

// Run processes articleID for attempt. Failures are written to the article
// as an error status; a run cancelled by a retry writes nothing.
func (o *Orchestrator) Run(ctx context.Context, articleID string, attempt int) Outcome {
	fields := map[string]interface{}{
		"article_id": articleID,
		"attempt":    attempt,
	}
	started := time.Now()
	o.logger.Info("Run started", fields)

	err := o.execute(ctx, articleID, attempt)
	outcome := o.finish(ctx, articleID, attempt, err)

	o.metrics.RunFinished(string(outcome))
	o.logger.Debug("Run finished", map[string]interface{}{
		"article_id": articleID,
		"attempt":    attempt,
		"outcome":    string(outcome),
		"duration":   time.Since(started).String(),
	})
	return outcome
}

func (o *Orchestrator) execute(ctx context.Context, articleID string, attempt int) error {
	var url string
	err := o.stage(ctx, apperrors.StageLoad, o.timeouts.Store, func(ctx context.Context) error {
		article, err := o.articles.Get(ctx, articleID)
		if apperrors.IsNotFound(err) {
			return errArticleMissing
		}
		if err != nil {
			return err
		}
		if article.Attempt != attempt {
			return apperrors.ErrStaleRun
		}
		url = article.URL
		return nil
	})
	if err != nil {
		return err
	}

	var markup string
	err = o.stage(ctx, apperrors.StageFetch, o.timeouts.Fetch, func(ctx context.Context) error {
		res, err := o.fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("Failed to fetch article: %w", err)
		}
		if !res.OK {
			return &apperrors.FetchError{URL: url, StatusCode: res.StatusCode, StatusText: res.StatusText}
		}
		markup = res.Body
		return nil
	})
	if err != nil {
		return err
	}

	var title, content string
	err = o.stage(ctx, apperrors.StageExtract, o.timeouts.Extract, func(ctx context.Context) error {
		extraction, err := o.extractor.Extract(ctx, markup, url)
		if err != nil {
			return err
		}
		title, content = extraction.Title, extraction.Content
		o.logger.Debug("Article extracted", map[string]interface{}{
			"article_id":     articleID,
			"tier":           extraction.Tier,
			"content_length": len(content),
		})
		return nil
	})
	if err != nil {
		return err
	}

	err = o.stage(ctx, apperrors.StageStore, o.timeouts.Store, func(ctx context.Context) error {
		return o.articles.SaveExtraction(ctx, articleID, attempt, title, content)
	})
	if err != nil {
		return err
	}

	var audio []byte
	err = o.stage(ctx, apperrors.StageSynthesize, o.timeouts.Synthesize, func(ctx context.Context) error {
		var synthErr error
		audio, synthErr = o.synthesizer.Synthesize(ctx, content)
		return synthErr
	})
	if err != nil {
		return err
	}

	return o.stage(ctx, apperrors.StageStore, o.timeouts.Store, func(ctx context.Context) error {
		ref, err := o.blobs.Store(ctx, audio)
		if err != nil {
			return err
		}
		return o.articles.MarkCompleted(ctx, articleID, attempt, ref)
	})
}

// stage runs fn under the stage deadline and tags its failure with the stage
func (o *Orchestrator) stage(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	stageCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		stageCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	began := time.Now()
	err := fn(stageCtx)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrStaleRun):
	case ctx.Err() != nil:
		err = &apperrors.StageError{Stage: name, Err: context.Cause(ctx)}
	case errors.Is(stageCtx.Err(), context.DeadlineExceeded):
		err = &apperrors.StageError{Stage: name, Err: &apperrors.TimeoutError{Stage: name, After: timeout}}
	default:
		err = &apperrors.StageError{Stage: name, Err: err}
	}

	o.metrics.ObserveStage(name, time.Since(began), err)
	return err
}

func (o *Orchestrator) finish(ctx context.Context, articleID string, attempt int, err error) Outcome {
	fields := map[string]interface{}{
		"article_id": articleID,
		"attempt":    attempt,
	}

	if err == nil {
		o.logger.Info("Run completed", fields)
		return OutcomeCompleted
	}
	if errors.Is(context.Cause(ctx), apperrors.ErrSuperseded) {
		o.logger.Info("Run superseded by a newer attempt", fields)
		return OutcomeSuperseded
	}
	if errors.Is(err, apperrors.ErrStaleRun) {
		o.logger.Warn("Run discarded, article was reset by a newer attempt", fields)
		return OutcomeStale
	}

	message := ErrorMessage(err)
	fields["stage"] = apperrors.StageOf(err)
	fields["error"] = message
	o.logger.Warn("Run failed", fields)

	// the failure must be recorded even when the run was cancelled by shutdown
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.recordTimeout())
	defer cancel()

	if recErr := o.articles.MarkError(recordCtx, articleID, attempt, message); recErr != nil {
		if errors.Is(recErr, apperrors.ErrStaleRun) {
			o.logger.Warn("Run discarded, article was reset by a newer attempt", fields)
			return OutcomeStale
		}
		o.logger.Error("Failed to record run error", map[string]interface{}{
			"article_id": articleID,
			"attempt":    attempt,
			"error":      recErr.Error(),
		})
	}
	return OutcomeError
}

func (o *Orchestrator) recordTimeout() time.Duration {
	if o.timeouts.Store > 0 {
		return o.timeouts.Store
	}
	return DefaultTimeouts().Store
}

// ErrorMessage is the human-readable text recorded for a failed run
func ErrorMessage(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return UnknownErrorMessage
	}
	return msg
}
