package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Construction errors ---

// InvalidInput creates a new AppError for an invalid parameter.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new AppError for a missing required parameter.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// ChainSealed creates a new AppError for an operation appended after a terminal one.
func ChainSealed(operation, terminal string) *AppError {
	return &AppError{
		Code:    ErrCodeChainSealed,
		Message: fmt.Sprintf("cannot append %s after terminal operation %s", operation, terminal),
		Details: map[string]any{"operation": operation, "terminal": terminal},
	}
}

// UnsupportedMode creates a new AppError for a chain that cannot run in the given mode.
func UnsupportedMode(mode, operation string) *AppError {
	return &AppError{
		Code:    ErrCodeUnsupportedMode,
		Message: fmt.Sprintf("operation %s does not support %s mode", operation, mode),
		Details: map[string]any{"mode": mode, "operation": operation},
	}
}

// --- Runtime errors ---

// TypeMismatch creates a new AppError for a value without the expected shape.
func TypeMismatch(operation, expected string, value any) *AppError {
	return &AppError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("%s expects %s, got %T", operation, expected, value),
		Details: map[string]any{"operation": operation, "expected": expected, "value": value},
	}
}

// AssertionFailed creates a new AppError for an element rejected by an assert operation.
func AssertionFailed(mode string, value, key any) *AppError {
	return &AppError{
		Code:    ErrCodeAssertionFailed,
		Message: fmt.Sprintf("assertion failed on element (mode: %s, key: %v, value: %v)", mode, key, value),
		Details: map[string]any{"mode": mode, "key": key, "value": value},
	}
}

// NotFound creates a new AppError for a result with no element.
func NotFound(what string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", what),
		Details: map[string]any{"resource": what},
	}
}

// Internal creates a new AppError for a broken engine invariant.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an engine invariant was violated",
		Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
