// Package errors provides the structured error type used across flowkit.
// Every failure surfaced by the engine is an *AppError carrying a
// machine-readable code: construction errors (INVALID_INPUT), runtime shape
// errors (TYPE_MISMATCH), failed assertions (ASSERTION_FAILED) and chain
// misuse (CHAIN_SEALED, UNSUPPORTED_MODE).
package errors
