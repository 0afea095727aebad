package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "too large", err: ErrImageTooLarge, expected: "Image size should be less than 5MB"},
		{name: "wrapped no text", err: fmt.Errorf("ocr: %w", ErrNoTextDetected), expected: "No text detected in image. Please type your question manually."},
		{name: "empty question", err: ErrEmptyQuestion, expected: "Please enter a question"},
		{name: "user error wins", err: NewUserError("Try again later", ErrTimeout), expected: "Try again later"},
		{name: "status", err: NewTransportError(502, nil), expected: "HTTP error! status: 502"},
		{name: "status with body", err: NewTransportError(500, errors.New("boom")), expected: "HTTP error! status: 500: boom"},
		{name: "plain", err: errors.New("odd"), expected: "odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserMessage(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(NewTransportError(0, errors.New("connection refused"))))
	assert.True(t, IsRetryable(NewTransportError(503, nil)))
	assert.False(t, IsRetryable(NewTransportError(400, nil)))
	assert.False(t, IsRetryable(ErrAuthRequired))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
}

func TestTransportError_Unwrap(t *testing.T) {
	err := NewTransportError(0, ErrCancelled)
	assert.ErrorIs(t, err, ErrCancelled)

	var transportErr *TransportError
	assert.ErrorAs(t, fmt.Errorf("query: %w", err), &transportErr)
}
