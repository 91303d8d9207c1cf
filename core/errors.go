package core

import "github.com/pkg/errors"

// FieldError is a failed check on one input field, keyed by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client mistake: the API answers it with a 400 and the field messages, if any.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ShutdownError marks a failure the process cannot recover from, such as the database going away.
// The API stops gracefully when a request ends with one.
type ShutdownError struct {
	Message string
	Err     error
}

func NewShutdownError(msg string, cause ...error) error {
	serr := &ShutdownError{Message: msg}
	if len(cause) > 0 {
		serr.Err = cause[0]
	}
	return serr
}

func (s *ShutdownError) Error() string {
	if s.Err == nil {
		return s.Message
	}
	return s.Message + ": " + s.Err.Error()
}

// Unwrap exposes the cause to errors.Is/As. There is no Cause method: errors.Cause stops here.
func (s *ShutdownError) Unwrap() error { return s.Err }

func IsShutdown(err error) bool {
	var serr *ShutdownError
	return errors.As(err, &serr)
}
