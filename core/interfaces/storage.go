// ABOUTME: Storage interfaces for persisting articles and audio blobs
// ABOUTME: Defines contracts for the record store backing the processing state machine

package interfaces

import (
	"context"

	"readaloud-api/core/domain"
)

// ArticleStore persists article records.
//
// Each method is a single-record update the store applies atomically. The
// run-scoped writers (SaveExtraction, MarkCompleted, MarkError) are fenced on
// attempt: if the stored attempt differs they return errors.ErrStaleRun and
// change nothing.
type ArticleStore interface {
	// Create inserts a new article. Returns *errors.DuplicateError when an
	// article with the same URL exists.
	Create(ctx context.Context, article *domain.Article) error

	// Get returns the article or *errors.NotFoundError
	Get(ctx context.Context, id string) (*domain.Article, error)

	// List returns every article, most recently created first
	List(ctx context.Context) ([]*domain.Article, error)

	// Reset clears title, content, audio reference and error message, sets
	// status to processing, increments the attempt and returns the new record
	Reset(ctx context.Context, id string) (*domain.Article, error)

	// SaveExtraction stores title and content while the article is processing
	SaveExtraction(ctx context.Context, id string, attempt int, title, content string) error

	// MarkCompleted sets the audio reference and completed status together
	MarkCompleted(ctx context.Context, id string, attempt int, audioRef string) error

	// MarkError sets error status and message
	MarkError(ctx context.Context, id string, attempt int, message string) error
}

// BlobStore holds opaque byte payloads such as synthesized audio
type BlobStore interface {
	// Store persists data and returns an opaque reference to it
	Store(ctx context.Context, data []byte) (string, error)

	// Load returns the payload for ref or *errors.NotFoundError
	Load(ctx context.Context, ref string) ([]byte, error)

	// ResolveURL returns a URL clients can play ref from
	ResolveURL(ref string) string
}
