// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Backend errors. Both are absorbed at the ranker boundary and trigger the
// metadata fallback path; they are never surfaced to callers.
var (
	// ErrBackendUnavailable indicates a search backend is down or its index
	// has not been built.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrBackendTimeout indicates a backend call exceeded its per-call bound.
	ErrBackendTimeout = errors.New("search backend timed out")
)

// Feature resource errors.
var (
	// ErrFeatureUnavailable indicates the feature-extraction resources did
	// not initialize within their bound.
	ErrFeatureUnavailable = errors.New("feature resources unavailable")
)

// Structural errors surfaced to callers as explicit failures.
var (
	// ErrDimensionMismatch indicates embeddings of inconsistent length
	// within one clustering call.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidClusterCount indicates a non-positive requested cluster count.
	ErrInvalidClusterCount = errors.New("invalid cluster count")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
