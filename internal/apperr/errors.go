// Package apperr defines the error taxonomy shared across the generation
// pipeline. Each error type carries the HTTP status it should surface as when
// it escapes to the API layer.
package apperr

import "fmt"

// StatusCoder is implemented by all errors in this package.
type StatusCoder interface {
	error
	StatusCode() int
}

// ValidationError indicates malformed or unusable caller input, such as a
// reference image that is neither inline nor fetchable.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string   { return e.Message }
func (e *ValidationError) Unwrap() error   { return e.Err }
func (e *ValidationError) StatusCode() int { return 400 }

// Validation builds a ValidationError with fmt-style formatting.
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ServiceError indicates an upstream generation, moderation, or video
// provider failure.
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string   { return e.Message }
func (e *ServiceError) Unwrap() error   { return e.Err }
func (e *ServiceError) StatusCode() int { return 502 }

func Service(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Message: fmt.Sprintf(format, args...)}
}

// ModerationError indicates content that was hard-rejected by the moderation
// gate. Only the remix flow rejects outright; the generation flows sanitize
// and proceed instead.
type ModerationError struct {
	Message string
}

func (e *ModerationError) Error() string   { return e.Message }
func (e *ModerationError) StatusCode() int { return 400 }

func Moderation(format string, args ...interface{}) *ModerationError {
	return &ModerationError{Message: fmt.Sprintf(format, args...)}
}

// PersistenceError indicates a database or blob storage failure.
type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string   { return e.Message }
func (e *PersistenceError) Unwrap() error   { return e.Err }
func (e *PersistenceError) StatusCode() int { return 500 }

func Persistence(format string, args ...interface{}) *PersistenceError {
	return &PersistenceError{Message: fmt.Sprintf(format, args...)}
}

// TimeoutError indicates that polling an external job exceeded the configured
// wait bound without reaching a terminal state.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string   { return e.Message }
func (e *TimeoutError) StatusCode() int { return 504 }

func Timeout(format string, args ...interface{}) *TimeoutError {
	return &TimeoutError{Message: fmt.Sprintf(format, args...)}
}
