// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Image ingestion errors.
	ErrImageTooLarge     = errors.New("image too large")
	ErrNotAnImage        = errors.New("not an image")
	ErrNoTextDetected    = errors.New("no text detected")
	ErrRecognitionFailed = errors.New("recognition failed")

	// Query errors.
	ErrEmptyQuestion  = errors.New("empty question")
	ErrSubmitInFlight = errors.New("a question is already being submitted")
	ErrAuthRequired   = errors.New("authentication required")
	ErrTimeout        = errors.New("request timed out")
	ErrCancelled      = errors.New("request cancelled")

	// Feedback errors.
	ErrNoAnswer         = errors.New("no answer to rate")
	ErrEmptyDescription = errors.New("problem description is required")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// TransportError is a failed exchange with the backend: a non-2xx status
// other than 401, a network failure or an undecodable body.
type TransportError struct {
	Err    error
	Status int
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		if e.Err != nil {
			return fmt.Sprintf("HTTP error! status: %d: %v", e.Status, e.Err)
		}
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "transport error"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err with the HTTP status that produced it.
func NewTransportError(status int, err error) error {
	return &TransportError{Status: status, Err: err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the text to show for err. UserError messages win,
// then the known taxonomy, then the raw error string.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}

	switch {
	case errors.Is(err, ErrImageTooLarge):
		return "Image size should be less than 5MB"
	case errors.Is(err, ErrNotAnImage):
		return "Only image files can be scanned"
	case errors.Is(err, ErrNoTextDetected):
		return "No text detected in image. Please type your question manually."
	case errors.Is(err, ErrRecognitionFailed):
		return "Failed to extract text from image. Please type your question manually."
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question"
	case errors.Is(err, ErrTimeout):
		return "Request timeout. The server is taking too long to respond. This usually happens on the first request while loading AI models. Please try again."
	case errors.Is(err, ErrAuthRequired):
		return "Login required"
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Error()
	}

	return err.Error()
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Status == 0 || transportErr.Status >= 500
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
