// ABOUTME: Article service implements the client operations: submit, retry, list and get
// ABOUTME: Submissions create a processing record and hand the run to the scheduler

package articles

import (
	"context"
	"fmt"

	"readaloud-api/core/domain"
	apperrors "readaloud-api/core/errors"
	"readaloud-api/core/interfaces"
)

// Service is the client-facing entry point to the pipeline
type Service struct {
	articles  interfaces.ArticleStore
	blobs     interfaces.BlobStore
	scheduler interfaces.RunScheduler
	logger    interfaces.Logger
}

var _ interfaces.ArticleService = (*Service)(nil)

// NewService creates an article service
func NewService(deps interfaces.Dependencies, scheduler interfaces.RunScheduler) *Service {
	return &Service{
		articles:  deps.Articles,
		blobs:     deps.Blobs,
		scheduler: scheduler,
		logger:    deps.Logger,
	}
}

// Submit creates an article for rawURL and schedules its first run. It
// returns without waiting for the run.
func (s *Service) Submit(ctx context.Context, rawURL string) (string, error) {
	article, err := domain.NewArticle(rawURL)
	if err != nil {
		return "", &apperrors.ValidationError{Field: "url", Message: err.Error()}
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return "", err
	}

	s.logger.Info("Article submitted", map[string]interface{}{
		"article_id": article.ID,
		"url":        article.URL,
	})

	if err := s.schedule(ctx, article.ID, article.Attempt); err != nil {
		return "", err
	}
	return article.ID, nil
}

// Retry resets the article and schedules a new run. A run of the previous
// attempt still in flight is cancelled.
func (s *Service) Retry(ctx context.Context, id string) (string, error) {
	article, err := s.articles.Reset(ctx, id)
	if err != nil {
		return "", err
	}

	s.logger.Info("Article retry requested", map[string]interface{}{
		"article_id": article.ID,
		"attempt":    article.Attempt,
	})

	if err := s.schedule(ctx, article.ID, article.Attempt); err != nil {
		return "", err
	}
	return article.ID, nil
}

// List returns every article, newest first, with playable audio URLs
func (s *Service) List(ctx context.Context) ([]domain.ArticleView, error) {
	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, s.view(a))
	}
	return views, nil
}

// Get returns one article with its playable audio URL
func (s *Service) Get(ctx context.Context, id string) (domain.ArticleView, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		return domain.ArticleView{}, err
	}
	return s.view(article), nil
}

// Audio returns the stored audio for ref
func (s *Service) Audio(ctx context.Context, ref string) ([]byte, error) {
	return s.blobs.Load(ctx, ref)
}

func (s *Service) view(a *domain.Article) domain.ArticleView {
	v := domain.ArticleView{Article: *a}
	if a.AudioRef != nil {
		v.AudioURL = domain.StringPtr(s.blobs.ResolveURL(*a.AudioRef))
	}
	return v
}

// schedule hands the run to the scheduler. If that fails the article is
// marked as errored so it does not sit in processing forever.
func (s *Service) schedule(ctx context.Context, id string, attempt int) error {
	err := s.scheduler.Schedule(id, attempt)
	if err == nil {
		return nil
	}

	s.logger.Error("Failed to schedule run", map[string]interface{}{
		"article_id": id,
		"attempt":    attempt,
		"error":      err.Error(),
	})

	message := fmt.Sprintf("Failed to schedule processing: %v", err)
	if markErr := s.articles.MarkError(context.WithoutCancel(ctx), id, attempt, message); markErr != nil {
		s.logger.Error("Failed to record scheduling error", map[string]interface{}{
			"article_id": id,
			"error":      markErr.Error(),
		})
	}
	return fmt.Errorf("schedule run: %w", err)
}
