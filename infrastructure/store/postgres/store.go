// ABOUTME: PostgreSQL article store backed by a pgx connection pool
// ABOUTME: Run writes are single conditional UPDATEs fenced on attempt and status

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"readaloud-api/core/domain"
	apperrors "readaloud-api/core/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the articles table
const Schema = `
CREATE TABLE IF NOT EXISTS articles (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	title         TEXT,
	content       TEXT,
	audio_ref     TEXT,
	status        TEXT NOT NULL,
	error_message TEXT,
	attempt       INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at DESC);
`

const selectColumns = `id, url, title, content, audio_ref, status, error_message, attempt, created_at, updated_at`

const uniqueViolation = "23505"

var errIncomplete = errors.New("completed article requires title, content and audio reference")

// Pool is the subset of *pgxpool.Pool the store uses
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool connects to dsn and checks the connection
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

// Store implements interfaces.ArticleStore on PostgreSQL
type Store struct {
	pool Pool
	now  func() time.Time
}

// NewStore creates a store over pool. The caller owns the pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate articles schema: %w", err)
	}
	return nil
}

// Create implements interfaces.ArticleStore
func (s *Store) Create(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (` + selectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		article.ID,
		article.URL,
		article.Title,
		article.Content,
		article.AudioRef,
		string(article.Status),
		article.ErrorMessage,
		article.Attempt,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &apperrors.DuplicateError{Resource: "article", Field: "url", Value: article.URL}
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

// Get implements interfaces.ArticleStore
func (s *Store) Get(ctx context.Context, id string) (*domain.Article, error) {
	query := `SELECT ` + selectColumns + ` FROM articles WHERE id = $1`
	a, err := scanArticle(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	return a, nil
}

// List implements interfaces.ArticleStore
func (s *Store) List(ctx context.Context) ([]*domain.Article, error) {
	query := `SELECT ` + selectColumns + ` FROM articles ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var out []*domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reset implements interfaces.ArticleStore
func (s *Store) Reset(ctx context.Context, id string) (*domain.Article, error) {
	query := `
		UPDATE articles
		SET title = NULL, content = NULL, audio_ref = NULL, error_message = NULL,
			status = 'processing', attempt = attempt + 1, updated_at = $2
		WHERE id = $1
		RETURNING ` + selectColumns
	a, err := scanArticle(s.pool.QueryRow(ctx, query, id, s.now()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "article", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset article: %w", err)
	}
	return a, nil
}

// SaveExtraction implements interfaces.ArticleStore
func (s *Store) SaveExtraction(ctx context.Context, id string, attempt int, title, content string) error {
	query := `
		UPDATE articles
		SET title = $3, content = $4, updated_at = $5
		WHERE id = $1 AND attempt = $2 AND status = 'processing'
	`
	return s.fenced(ctx, id, attempt, query, title, content, s.now())
}

// MarkCompleted implements interfaces.ArticleStore
func (s *Store) MarkCompleted(ctx context.Context, id string, attempt int, audioRef string) error {
	query := `
		UPDATE articles
		SET audio_ref = $3, error_message = NULL, status = 'completed', updated_at = $4
		WHERE id = $1 AND attempt = $2 AND status = 'processing'
			AND title IS NOT NULL AND content IS NOT NULL
	`
	return s.fenced(ctx, id, attempt, query, audioRef, s.now())
}

// MarkError implements interfaces.ArticleStore
func (s *Store) MarkError(ctx context.Context, id string, attempt int, message string) error {
	query := `
		UPDATE articles
		SET audio_ref = NULL, error_message = $3, status = 'error', updated_at = $4
		WHERE id = $1 AND attempt = $2 AND status = 'processing'
	`
	return s.fenced(ctx, id, attempt, query, message, s.now())
}

// fenced runs a conditional UPDATE whose first two parameters are id and
// attempt. When no row matches it works out why.
func (s *Store) fenced(ctx context.Context, id string, attempt int, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, append([]any{id, attempt}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Attempt != attempt || current.Status != domain.StatusProcessing {
		return apperrors.ErrStaleRun
	}
	return errIncomplete
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var (
		a      domain.Article
		status string
	)
	err := row.Scan(
		&a.ID,
		&a.URL,
		&a.Title,
		&a.Content,
		&a.AudioRef,
		&status,
		&a.ErrorMessage,
		&a.Attempt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = domain.Status(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
