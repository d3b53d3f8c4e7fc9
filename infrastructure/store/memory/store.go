// ABOUTME: In-memory article store for development and tests
// ABOUTME: Keeps records in a mutex-guarded map with a unique URL index

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"readaloud-api/core/domain"
	apperrors "readaloud-api/core/errors"
)

// Store implements interfaces.ArticleStore in process memory
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Article
	byURL map[string]string
	now   func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		byID:  make(map[string]*domain.Article),
		byURL: make(map[string]string),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create implements interfaces.ArticleStore
func (s *Store) Create(ctx context.Context, article *domain.Article) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURL[article.URL]; exists {
		return &apperrors.DuplicateError{Resource: "article", Field: "url", Value: article.URL}
	}
	s.byID[article.ID] = article.Clone()
	s.byURL[article.URL] = article.ID
	return nil
}

// Get implements interfaces.ArticleStore
func (s *Store) Get(ctx context.Context, id string) (*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	article, ok := s.byID[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	return article.Clone(), nil
}

// List implements interfaces.ArticleStore
func (s *Store) List(ctx context.Context) ([]*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]*domain.Article, 0, len(s.byID))
	for _, article := range s.byID {
		out = append(out, article.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Reset implements interfaces.ArticleStore
func (s *Store) Reset(ctx context.Context, id string) (*domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.byID[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	article.Reset(s.now())
	return article.Clone(), nil
}

// SaveExtraction implements interfaces.ArticleStore
func (s *Store) SaveExtraction(ctx context.Context, id string, attempt int, title, content string) error {
	return s.update(ctx, id, attempt, func(a *domain.Article) error {
		a.Title = domain.StringPtr(title)
		a.Content = domain.StringPtr(content)
		return nil
	})
}

// MarkCompleted implements interfaces.ArticleStore
func (s *Store) MarkCompleted(ctx context.Context, id string, attempt int, audioRef string) error {
	return s.update(ctx, id, attempt, func(a *domain.Article) error {
		a.AudioRef = domain.StringPtr(audioRef)
		a.ErrorMessage = nil
		a.Status = domain.StatusCompleted
		return a.Validate()
	})
}

// MarkError implements interfaces.ArticleStore
func (s *Store) MarkError(ctx context.Context, id string, attempt int, message string) error {
	return s.update(ctx, id, attempt, func(a *domain.Article) error {
		a.AudioRef = nil
		a.ErrorMessage = domain.StringPtr(message)
		a.Status = domain.StatusError
		return nil
	})
}

// update applies mutate to a copy of a processing record owned by attempt
// and stores it only when mutate succeeds
func (s *Store) update(ctx context.Context, id string, attempt int, mutate func(*domain.Article) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	if current.Attempt != attempt || current.Status != domain.StatusProcessing {
		return apperrors.ErrStaleRun
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	next.UpdatedAt = s.now()
	s.byID[id] = next
	return nil
}
