package gameapi

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the client. Callers use errors.Is to decide
// whether a failure is a skip (ErrNotFound) or a stage abort
// (ErrRateLimitExceeded).
var (
	// ErrRateLimitExceeded reports that every retry of a throttled call was
	// consumed without a successful response.
	ErrRateLimitExceeded = errors.New("rate limit retries exhausted")

	// ErrNotFound reports an upstream 404 for the requested resource.
	ErrNotFound = errors.New("resource not found")
)

// ValidationError reports an upstream payload that does not match the
// expected wire shape. Per-item consumers treat it as a skip, never a fatal.
type ValidationError struct {
	Endpoint string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s", e.Endpoint, e.Reason)
}

// NewValidationError builds a ValidationError for the given endpoint.
func NewValidationError(endpoint, format string, args ...any) *ValidationError {
	return &ValidationError{Endpoint: endpoint, Reason: fmt.Sprintf(format, args...)}
}
