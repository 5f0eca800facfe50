package service

import (
	"errors"
	"fmt"

	"bookhub/internal/microservices/http-api/repository"
)

var (
	// ErrValidation marks malformed input. Nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing user, progress record or quiz.
	ErrNotFound = errors.New("not found")
	// ErrTransient means conflict retries were exhausted. The caller may retry.
	ErrTransient = errors.New("temporarily unavailable, retry")
	// ErrUnknownBook is returned for a book id that is not in the catalog.
	// It is both a validation and a not-found error.
	ErrUnknownBook error = unknownBookError{}
)

type unknownBookError struct{}

func (unknownBookError) Error() string { return "unknown book" }

func (unknownBookError) Is(target error) bool {
	return target == ErrValidation || target == ErrNotFound
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound lifts repository.ErrNotFound into the service taxonomy and
// passes every other error through.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
