package msgraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
)

// RateLimitError indicates the provider throttled the request past
// all retries.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("msgraph: rate limit exceeded, retry after %s", e.RetryAfter)
}

// APIError represents a Graph API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("msgraph: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// graphErrorBody is the provider's error envelope.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(statusCode int, body []byte, url string) *APIError {
	var envelope graphErrorBody
	message := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = envelope.Error.Message
	}
	return &APIError{StatusCode: statusCode, Message: message, URL: url}
}

// IsNotFound checks if the error indicates a missing resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsForbidden checks if the error indicates a forbidden resource.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 403
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// toDomain maps a provider error onto the domain sentinels so the core
// can classify it without importing this package.
func toDomain(err error) error {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401:
			return fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
		case 403:
			return fmt.Errorf("%w: %v", domain.ErrAccessDenied, err)
		case 404:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case 429:
			return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}
	}
	return err
}
