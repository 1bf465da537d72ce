// Package errors provides standardized error handling for the Home Assistant
// client. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping across the session core.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that the reconnect
	// machinery recovers from (transport-level open and read failures)
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or caller state
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that terminate the session
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Connection lifecycle errors
	ErrNotConnected   = errors.New("not connected to the hub")
	ErrConnectFailed  = errors.New("connection attempt failed")
	ErrConnectTimeout = errors.New("connection timeout")
	ErrConnectionLost = errors.New("connection lost")

	// Session errors
	ErrInvalidState = errors.New("session not ready")
	ErrAuthRejected = errors.New("authentication rejected")
	ErrStopped      = errors.New("client stopped")

	// Protocol errors
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrUnknownRegistry = errors.New("unknown registry kind")
	ErrRequestFailed   = errors.New("request reported failure")
	ErrCallTimeout     = errors.New("call timed out waiting for response")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient; transient failures leave the
// connection handle absent and are retried by the liveness monitor, never by
// the failing call itself
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrConnectFailed) ||
		errors.Is(err, ErrConnectTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrNotConnected)
}

// IsFatal checks if an error terminates the session. Only authentication
// rejection is fatal: invalid credentials will not become valid on retry.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrAuthRejected)
}

// IsInvalid checks if an error is due to invalid input or caller state
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrMalformedFrame) ||
		errors.Is(err, ErrUnknownRegistry)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Default to transient for unknown errors so the reconnect
	// machinery gets a chance to recover
	return ErrorTransient
}

// newClassified creates a new classified error.
// This is an internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
