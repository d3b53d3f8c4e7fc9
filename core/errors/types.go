// ABOUTME: Custom error types for the core business logic
// ABOUTME: Provides structured errors for API responses and for recording pipeline failures

package errors

import (
	"errors"
	"fmt"
	"time"
)

// Pipeline stages used to classify run failures
const (
	StageLoad       = "load"
	StageFetch      = "fetch"
	StageExtract    = "extract"
	StageSynthesize = "synthesize"
	StageStore      = "store"
)

// ErrStaleRun is returned by a store when a run writes to a record that a
// newer attempt has taken over
var ErrStaleRun = errors.New("article was reset by a newer attempt")

// ErrSuperseded is the cancellation cause of a run replaced by a retry
var ErrSuperseded = errors.New("run superseded by retry")

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// DuplicateError is returned when a unique field value is already taken
type DuplicateError struct {
	Resource string
	Field    string
	Value    string
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

// ExternalAPIError represents an error from an external API
type ExternalAPIError struct {
	StatusCode int
	Message    string
	API        string
}

// Error implements the error interface
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("external API error from %s: %d - %s", e.API, e.StatusCode, e.Message)
}

// StageError ties a pipeline failure to the stage that produced it.
// Its message is what gets recorded on the article.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Stage + " failed"
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying cause
func (e *StageError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when a stage exceeds its deadline
type TimeoutError struct {
	Stage string
	After time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Stage, e.After)
}

// FetchError reports a page fetch that did not return a success status
type FetchError struct {
	URL        string
	StatusCode int
	StatusText string
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("Failed to fetch article: %s", e.StatusText)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsDuplicate checks if an error is a DuplicateError
func IsDuplicate(err error) bool {
	var dupErr *DuplicateError
	return errors.As(err, &dupErr)
}

// IsExternalAPI checks if an error is an ExternalAPIError
func IsExternalAPI(err error) bool {
	var apiErr *ExternalAPIError
	return errors.As(err, &apiErr)
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// StageOf returns the stage recorded on err, or "" when err carries none
func StageOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Stage
	}
	return ""
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
