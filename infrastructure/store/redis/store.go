// ABOUTME: Redis article store shared by multiple API instances
// ABOUTME: Articles are hashes, URLs are claimed with SETNX and run writes use WATCH/MULTI

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"readaloud-api/core/domain"
	apperrors "readaloud-api/core/errors"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "readaloud:"
	createdKey = keyPrefix + "articles:by_created"

	// optimistic transactions retry this many times before giving up
	maxTxRetries = 10
)

const (
	fieldID           = "id"
	fieldURL          = "url"
	fieldTitle        = "title"
	fieldContent      = "content"
	fieldAudioRef     = "audio_ref"
	fieldStatus       = "status"
	fieldErrorMessage = "error_message"
	fieldAttempt      = "attempt"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

func articleKey(id string) string { return keyPrefix + "article:" + id }
func urlKey(url string) string    { return keyPrefix + "url:" + url }

// Store implements interfaces.ArticleStore on Redis
type Store struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewStore creates a store over client. The caller owns the client.
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client, now: func() time.Time { return time.Now().UTC() }}
}

// Create implements interfaces.ArticleStore
func (s *Store) Create(ctx context.Context, article *domain.Article) error {
	claimed, err := s.client.SetNX(ctx, urlKey(article.URL), article.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim article url: %w", err)
	}
	if !claimed {
		return &apperrors.DuplicateError{Resource: "article", Field: "url", Value: article.URL}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, articleKey(article.ID), toHash(article))
		pipe.ZAdd(ctx, createdKey, redis.Z{Score: score(article.CreatedAt), Member: article.ID})
		return nil
	})
	if err != nil {
		// release the claim so the URL can be submitted again
		s.client.Del(context.WithoutCancel(ctx), urlKey(article.URL))
		return fmt.Errorf("write article: %w", err)
	}
	return nil
}

// Get implements interfaces.ArticleStore
func (s *Store) Get(ctx context.Context, id string) (*domain.Article, error) {
	return load(ctx, s.client, id)
}

// List implements interfaces.ArticleStore
func (s *Store) List(ctx context.Context) ([]*domain.Article, error) {
	ids, err := s.client.ZRevRange(ctx, createdKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list article ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, articleKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}

	out := make([]*domain.Article, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		a, err := fromHash(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Reset implements interfaces.ArticleStore
func (s *Store) Reset(ctx context.Context, id string) (*domain.Article, error) {
	var reset *domain.Article
	err := s.transact(ctx, id, func(a *domain.Article) error {
		a.Reset(s.now())
		reset = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reset, nil
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

func (s *Store) update(ctx context.Context, id string, attempt int, mutate func(*domain.Article) error) error {
	return s.transact(ctx, id, func(a *domain.Article) error {
		if a.Attempt != attempt || a.Status != domain.StatusProcessing {
			return apperrors.ErrStaleRun
		}
		if err := mutate(a); err != nil {
			return err
		}
		a.UpdatedAt = s.now()
		return nil
	})
}

// transact reads the article under WATCH, applies mutate and writes the
// result in MULTI/EXEC, retrying when another writer got there first
func (s *Store) transact(ctx context.Context, id string, mutate func(*domain.Article) error) error {
	key := articleKey(id)
	txf := func(tx *redis.Tx) error {
		a, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(a); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toHash(a))
			if cleared := nilFields(a); len(cleared) > 0 {
				pipe.HDel(ctx, key, cleared...)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("article %s: too much write contention", id)
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func load(ctx context.Context, c hashReader, id string) (*domain.Article, error) {
	fields, err := c.HGetAll(ctx, articleKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	if len(fields) == 0 {
		return nil, &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	return fromHash(fields)
}

func score(t time.Time) float64 {
	return float64(t.UnixMicro())
}

func toHash(a *domain.Article) map[string]interface{} {
	h := map[string]interface{}{
		fieldID:        a.ID,
		fieldURL:       a.URL,
		fieldStatus:    string(a.Status),
		fieldAttempt:   a.Attempt,
		fieldCreatedAt: a.CreatedAt.Format(time.RFC3339Nano),
		fieldUpdatedAt: a.UpdatedAt.Format(time.RFC3339Nano),
	}
	optional := map[string]*string{
		fieldTitle:        a.Title,
		fieldContent:      a.Content,
		fieldAudioRef:     a.AudioRef,
		fieldErrorMessage: a.ErrorMessage,
	}
	for field, value := range optional {
		if value != nil {
			h[field] = *value
		}
	}
	return h
}

func nilFields(a *domain.Article) []string {
	var out []string
	if a.Title == nil {
		out = append(out, fieldTitle)
	}
	if a.Content == nil {
		out = append(out, fieldContent)
	}
	if a.AudioRef == nil {
		out = append(out, fieldAudioRef)
	}
	if a.ErrorMessage == nil {
		out = append(out, fieldErrorMessage)
	}
	return out
}

func fromHash(h map[string]string) (*domain.Article, error) {
	attempt, err := strconv.Atoi(h[fieldAttempt])
	if err != nil {
		return nil, fmt.Errorf("article %s: bad attempt %q", h[fieldID], h[fieldAttempt])
	}
	createdAt, err := time.Parse(time.RFC3339Nano, h[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("article %s: bad created_at: %w", h[fieldID], err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, h[fieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("article %s: bad updated_at: %w", h[fieldID], err)
	}

	a := &domain.Article{
		ID:        h[fieldID],
		URL:       h[fieldURL],
		Status:    domain.Status(h[fieldStatus]),
		Attempt:   attempt,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
	if v, ok := h[fieldTitle]; ok {
		a.Title = domain.StringPtr(v)
	}
	if v, ok := h[fieldContent]; ok {
		a.Content = domain.StringPtr(v)
	}
	if v, ok := h[fieldAudioRef]; ok {
		a.AudioRef = domain.StringPtr(v)
	}
	if v, ok := h[fieldErrorMessage]; ok {
		a.ErrorMessage = domain.StringPtr(v)
	}
	return a, nil
}
