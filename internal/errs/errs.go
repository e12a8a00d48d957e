// Package errs defines the error taxonomy shared by the recall core.
//
// Each kind is a struct type so callers can recover structured detail with
// errors.As (the invalid field, the failed I/O step, the upstream status).
// Absence of data is never an error here; packages report it with their own
// sentinels (see artifact.ErrNotFound).
package errs

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a bad or missing caller-supplied field.
// It is never retried and maps to a 4xx at the transport boundary.
type InvalidInputError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

// InvalidInput returns an InvalidInputError for field.
func InvalidInput(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError reports a failed read or write against the artifact store.
type PersistenceError struct {
	Op   string // "write", "read", "list", "mkdir"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap allows errors.Is and errors.As to reach the underlying I/O error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError. A nil err yields nil.
func Persistence(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Path: path, Err: err}
}

// ReasoningError reports a transport failure or non-success response from the
// external reasoning capability. Status is the upstream HTTP status, or 0 when
// the request never produced a response.
type ReasoningError struct {
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ReasoningError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("reasoning: upstream status %d: %s", e.Status, e.Message)
	}
	return "reasoning: " + e.Message
}

// Unwrap allows errors.Is and errors.As to reach the transport error.
func (e *ReasoningError) Unwrap() error {
	return e.Err
}

// MissingConfigurationError reports a required setting that was never provided.
type MissingConfigurationError struct {
	Key    string
	EnvVar string
}

// Error implements the error interface.
func (e *MissingConfigurationError) Error() string {
	if e.EnvVar == "" {
		return fmt.Sprintf("missing configuration: %s is required", e.Key)
	}
	return fmt.Sprintf("missing configuration: %s is required (set %s)", e.Key, e.EnvVar)
}

// MissingConfiguration returns a MissingConfigurationError for key.
func MissingConfiguration(key, envVar string) error {
	return &MissingConfigurationError{Key: key, EnvVar: envVar}
}

// IsInvalidInput reports whether err wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

// IsPersistence reports whether err wraps a PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

// IsReasoning reports whether err wraps a ReasoningError.
func IsReasoning(err error) bool {
	var target *ReasoningError
	return errors.As(err, &target)
}

// IsMissingConfiguration reports whether err wraps a MissingConfigurationError.
func IsMissingConfiguration(err error) bool {
	var target *MissingConfigurationError
	return errors.As(err, &target)
}
