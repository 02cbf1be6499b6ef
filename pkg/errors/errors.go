// Package errors defines the error taxonomy shared by the KOS integration
// layers, plus database error classification utilities.
package errors

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input (bad phone number, bad billing
// month). It is rejected before any external call is attempted.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError for the given field.
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError reports a failed exchange with the KOS system: timeout,
// connection failure, or a non-2xx transport status. Transport errors count
// toward the circuit breaker failure window.
type TransportError struct {
	Endpoint   string
	StatusCode int // 0 when the request never completed
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("kos transport failure on %s (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("kos transport failure on %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// NewTransport creates a TransportError for the given endpoint.
func NewTransport(endpoint string, statusCode int, err error) error {
	return &TransportError{Endpoint: endpoint, StatusCode: statusCode, Err: err}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// DecodeError reports a KOS response that could not be parsed into the
// expected shape. Decode errors do NOT count toward the circuit breaker
// failure window; they are always logged.
type DecodeError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("kos response decode failure on %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// NewDecode creates a DecodeError for the given endpoint.
func NewDecode(endpoint string, err error) error {
	return &DecodeError{Endpoint: endpoint, Err: err}
}

// IsDecode reports whether err is (or wraps) a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Precondition codes for rejected product changes.
const (
	CodeSameProduct     = "SAME_PRODUCT"
	CodeLineNotActive   = "LINE_NOT_ACTIVE"
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
)

// PreconditionError reports a business precondition failure, e.g. "already
// on the requested product" or "line is suspended". It is rejected before any
// external call or queue record is created.
type PreconditionError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed (%s): %s", e.Code, e.Message)
}

// NewPrecondition creates a PreconditionError with the given code.
func NewPrecondition(code, message string) error {
	return &PreconditionError{Code: code, Message: message}
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
