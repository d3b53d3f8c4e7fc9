// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors to appropriate HTTP responses

package handlers

import (
	"errors"
	"net/http"

	apperrors "readaloud-api/core/errors"

	"github.com/danielgtaylor/huma/v2"
)

// toHumaError converts domain errors to appropriate Huma HTTP errors
func toHumaError(err error) error {
	if err == nil {
		return nil
	}

	if apperrors.IsNotFound(err) {
		return huma.Error404NotFound(err.Error())
	}

	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		return huma.Error400BadRequest(validationErr.Field + ": " + validationErr.Message)
	}

	if apperrors.IsDuplicate(err) {
		return huma.Error409Conflict(err.Error())
	}

	var apiErr *apperrors.ExternalAPIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return huma.Error429TooManyRequests("Rate limited by external service")
		case http.StatusServiceUnavailable:
			return huma.Error503ServiceUnavailable("External service unavailable", err)
		default:
			return huma.Error502BadGateway("External service error", err)
		}
	}

	return huma.Error500InternalServerError("Internal server error", err)
}
