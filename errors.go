package progression

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("progression: not found")
	ErrInvalidInput = errors.New("progression: invalid input")
	ErrNotStarted   = errors.New("progression: ledger not started")
	ErrStopped      = errors.New("progression: ledger stopped")

	// Purchase errors
	ErrUnknownCatalogItem   = errors.New("progression: unknown catalog item")
	ErrPurchaseNotConfirmed = errors.New("progression: purchase not confirmed")
	ErrNoPurchaseProvider   = errors.New("progression: no purchase provider configured")

	// Catalog errors
	ErrCatalogUnavailable = errors.New("progression: catalog unavailable")

	// Store errors
	ErrCheckpointNotFound = errors.New("progression: workflow checkpoint not found")
	ErrPersistFailed      = errors.New("progression: persistence write failed")
	ErrMigrationFailed    = errors.New("progression: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("progression: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "progression: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("progression: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns the multi-error when it holds errors, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCheckpointNotFound)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistFailed)
}
