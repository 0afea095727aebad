package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/mathq/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrInvalidOutcome = errors.New("invalid query outcome")
	ErrInvalidLimit   = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateOutcome checks that an outcome is one of the known kinds and
// carries what that kind requires.
func validateOutcome(o model.QueryOutcome) error {
	switch o.Kind {
	case model.OutcomeAnswer:
		if o.Answer == nil {
			return fmt.Errorf("%w: answer outcome without payload", ErrInvalidOutcome)
		}
	case model.OutcomeAuthRequired, model.OutcomeTransportError, model.OutcomeTimeout:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOutcome, o.Kind)
	}
	return nil
}
