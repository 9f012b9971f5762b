package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks requests the pipeline refuses to run, such as an empty question.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized marks calls rejected by a bearer key check.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTemporary marks collaborator failures that are worth retrying.
	ErrTemporary = errors.New("temporary failure")
	// ErrCollectionUnavailable is returned when a collection cannot be opened or searched.
	ErrCollectionUnavailable = errors.New("collection unavailable")
	// ErrLLMUnavailable marks a language model backend that is not configured or not reachable.
	ErrLLMUnavailable = errors.New("language model unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
