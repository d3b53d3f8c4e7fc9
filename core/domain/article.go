// ABOUTME: Article domain model tracks one URL through extraction and speech synthesis
// ABOUTME: Defines the status state machine and the field-presence invariants per status

package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of an article
type Status string

const (
	// StatusProcessing means a run is scheduled or in flight
	StatusProcessing Status = "processing"

	// StatusCompleted means title, content and audio are all available
	StatusCompleted Status = "completed"

	// StatusError means the last run failed; ErrorMessage explains why
	StatusError Status = "error"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Article is the persisted unit of work for one submitted URL
type Article struct {
	// ID is the immutable identifier assigned at creation
	ID string `json:"id"`

	// URL is the source page; unique across all articles
	URL string `json:"url"`

	// Title is set once extraction succeeds
	Title *string `json:"title"`

	// Content is the extracted plain-text body used for synthesis
	Content *string `json:"content"`

	// AudioRef is the blob store reference of the synthesized audio
	AudioRef *string `json:"audioRef"`

	// Status is the current state machine position
	Status Status `json:"status"`

	// ErrorMessage is only present when Status is StatusError
	ErrorMessage *string `json:"errorMessage"`

	// Attempt starts at 1 and is incremented on every retry.
	// Run writes are fenced on it.
	Attempt int `json:"attempt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewArticle creates a processing article for rawURL after validating it
func NewArticle(rawURL string) (*Article, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("url cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, errors.New("url must be absolute")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("url scheme must be http or https")
	}

	now := time.Now().UTC()
	return &Article{
		ID:        uuid.New().String(),
		URL:       rawURL,
		Status:    StatusProcessing,
		Attempt:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks the field-presence invariants for the article's status
func (a *Article) Validate() error {
	if a.ID == "" {
		return errors.New("article id is empty")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("unknown status %q", a.Status)
	}

	switch a.Status {
	case StatusProcessing:
		if a.AudioRef != nil {
			return errors.New("processing article must not carry an audio reference")
		}
		if a.ErrorMessage != nil {
			return errors.New("processing article must not carry an error message")
		}
	case StatusCompleted:
		if a.Title == nil || a.Content == nil || a.AudioRef == nil {
			return errors.New("completed article requires title, content and audio reference")
		}
		if a.ErrorMessage != nil {
			return errors.New("completed article must not carry an error message")
		}
	case StatusError:
		if a.ErrorMessage == nil {
			return errors.New("errored article requires an error message")
		}
		if a.AudioRef != nil {
			return errors.New("errored article must not carry an audio reference")
		}
	}
	return nil
}

// Reset clears every run-produced field and moves the article back to
// processing under a new attempt
func (a *Article) Reset(now time.Time) {
	a.Title = nil
	a.Content = nil
	a.AudioRef = nil
	a.ErrorMessage = nil
	a.Status = StatusProcessing
	a.Attempt++
	a.UpdatedAt = now
}

// Clone returns a deep copy so callers cannot mutate stored state
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	c := *a
	c.Title = cloneString(a.Title)
	c.Content = cloneString(a.Content)
	c.AudioRef = cloneString(a.AudioRef)
	c.ErrorMessage = cloneString(a.ErrorMessage)
	return &c
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// StringValue dereferences p, returning "" for nil
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ArticleView is an article as presented to clients, with the playable
// audio URL resolved from AudioRef
type ArticleView struct {
	Article
	AudioURL *string `json:"audioUrl"`
}
