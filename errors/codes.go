package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Construction errors, raised before any element is processed.
const (
	// ErrCodeInvalidInput indicates an invalid operator or config parameter.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required parameter is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeChainSealed indicates an append after a terminal operation.
	ErrCodeChainSealed ErrorCode = "CHAIN_SEALED"
	// ErrCodeUnsupportedMode indicates a chain cannot run in the requested mode.
	ErrCodeUnsupportedMode ErrorCode = "UNSUPPORTED_MODE"
)

// Runtime errors, raised while a run is in progress. They abort the run.
const (
	// ErrCodeTypeMismatch indicates a value does not have the required shape.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeAssertionFailed indicates an assert operation rejected an element.
	ErrCodeAssertionFailed ErrorCode = "ASSERTION_FAILED"
	// ErrCodeNotFound indicates a lookup on a result that found nothing.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Internal errors
const (
	// ErrCodeInternal indicates a broken engine invariant.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var constructionCodes = map[ErrorCode]bool{
	ErrCodeInvalidInput:    true,
	ErrCodeMissingField:    true,
	ErrCodeChainSealed:     true,
	ErrCodeUnsupportedMode: true,
}

// IsConstructionCode returns true if the code is raised while a chain is
// being built rather than while it runs.
func IsConstructionCode(code ErrorCode) bool {
	return constructionCodes[code]
}
