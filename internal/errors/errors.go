package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category an error is reported under
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeInternal   ErrorType = "system_error"
)

// ErrorKind is the fine-grained taxonomy tag of a rejection
type ErrorKind string

const (
	KindMissingFile         ErrorKind = "MissingFile"
	KindInvalidFilename     ErrorKind = "InvalidFilename"
	KindFileTooLarge        ErrorKind = "FileTooLarge"
	KindDecodeError         ErrorKind = "DecodeError"
	KindDimensionOutOfRange ErrorKind = "DimensionOutOfRange"
	KindDegenerateContent   ErrorKind = "DegenerateContent"
	KindLowConfidence       ErrorKind = "LowConfidence"
	KindUnknownLocation     ErrorKind = "UnknownLocation"
	KindInternalError       ErrorKind = "InternalError"
)

// Category returns the error type a kind is reported under.
// Only InternalError is server-caused.
func (k ErrorKind) Category() ErrorType {
	if k == KindInternalError || k == "" {
		return ErrorTypeInternal
	}
	return ErrorTypeValidation
}

// StatusCode returns the HTTP status class for the kind
func (k ErrorKind) StatusCode() int {
	if k.Category() == ErrorTypeInternal {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind; the type and status code follow from the kind
func New(kind ErrorKind, message string, cause error) *AppError {
	return &AppError{
		Type:       kind.Category(),
		Kind:       kind,
		Message:    message,
		StatusCode: kind.StatusCode(),
		Cause:      cause,
	}
}

// NewValidationError creates a client-caused error of the given kind
func NewValidationError(kind ErrorKind, message string, cause error) *AppError {
	return New(kind, message, cause)
}

// NewInternalError creates a server-side contract violation error
func NewInternalError(message string, cause error) *AppError {
	return New(KindInternalError, message, cause)
}

// As extracts an *AppError from err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the taxonomy kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) ErrorKind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternalError
}

// IsKind checks if the error is of a specific kind
func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
