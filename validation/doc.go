// Package validation provides parameter validation for flowkit operators
// and configuration.
//
// Operator constructors use the fluent Validator so that invalid
// parameters (non-positive sizes, empty key sets, ...) fail when the
// operator is built, before any element is pulled. Configuration structs
// use struct tags checked by go-playground/validator.
//
// # Struct Tag Validation
//
//	type WindowSpec struct {
//	    Size int `validate:"gt=0"`
//	    Step int `validate:"gt=0"`
//	}
//	err := validation.Validate(spec)
//
// # Programmatic Validation
//
//	err := validation.New().Positive("limit", n).Error()
package validation
