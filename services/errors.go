package services

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced to handlers. Handlers map these onto HTTP
// statuses; everything else is a 500.
var (
	// ErrNotFound: challenge/module/user absent or inactive. Not retryable.
	ErrNotFound = errors.New("not found")

	// ErrValidation: caller passed bad input (negative seconds,
	// non-positive points). Not retryable.
	ErrValidation = errors.New("validation failed")

	// ErrTransient: store-level contention or timeout. The whole unit of
	// work was rolled back, so retrying with the same inputs is safe.
	ErrTransient = errors.New("transient store error")
)

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// transient tags a store error as retryable. Domain errors pass through
// untouched so callers can still match on them.
func transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
