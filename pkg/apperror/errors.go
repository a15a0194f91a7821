package apperror

import (
	"errors"
	"fmt"
)

// Kind categorises an application error for propagation and transport mapping.
type Kind string

const (
	KindConfiguration Kind = "CONFIGURATION"
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindSynthesis     Kind = "SYNTHESIS"
	KindInternal      Kind = "INTERNAL"
)

// Error is the custom error type shared by the brain components.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration reports a missing downstream capability. Never retried.
func Configuration(message string) error {
	return &Error{Kind: KindConfiguration, Message: message}
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// Synthesis reports a failed or empty completion from the answer synthesizer.
func Synthesis(message string, err error) error {
	return &Error{Kind: KindSynthesis, Message: message, Err: err}
}

func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Wrap adds context to err. An existing kind is preserved, anything else
// becomes INTERNAL.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Kind:    appErr.Kind,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or INTERNAL when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsConfiguration(err error) bool { return is(err, KindConfiguration) }
func IsValidation(err error) bool    { return is(err, KindValidation) }
func IsNotFound(err error) bool      { return is(err, KindNotFound) }
func IsConflict(err error) bool      { return is(err, KindConflict) }
func IsSynthesis(err error) bool     { return is(err, KindSynthesis) }

func is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
