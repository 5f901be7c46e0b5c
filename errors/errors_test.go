package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeTypeMismatch, "bad shape")
	if err.Code != ErrCodeTypeMismatch {
		t.Errorf("expected code %s, got %s", ErrCodeTypeMismatch, err.Code)
	}
	if err.Message != "bad shape" {
		t.Errorf("expected message 'bad shape', got %q", err.Message)
	}
}

func TestAppError_InvalidInput_Success(t *testing.T) {
	err := InvalidInput("size", "must be greater than 0")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", err.Code)
	}
	if err.Details["field"] != "size" {
		t.Errorf("expected field=size, got %v", err.Details["field"])
	}
	if !IsConstructionCode(err.Code) {
		t.Error("INVALID_INPUT should be a construction code")
	}
}

func TestAppError_InvalidInput_EmptyField(t *testing.T) {
	err := InvalidInput("", "bad")
	if _, ok := err.Details["field"]; ok {
		t.Error("expected no 'field' key in details when field is empty")
	}
}

func TestAppError_TypeMismatch_Success(t *testing.T) {
	err := TypeMismatch("field", "map or struct", 42)
	if err.Code != ErrCodeTypeMismatch {
		t.Errorf("expected TYPE_MISMATCH, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "int") {
		t.Errorf("expected message to name the offending type, got %q", err.Message)
	}
	if IsConstructionCode(err.Code) {
		t.Error("TYPE_MISMATCH is a runtime code")
	}
}

func TestAppError_AssertionFailed_Success(t *testing.T) {
	err := AssertionFailed("value", 7, 3)
	if err.Code != ErrCodeAssertionFailed {
		t.Errorf("expected ASSERTION_FAILED, got %s", err.Code)
	}
	for _, part := range []string{"value", "key: 3", "value: 7"} {
		if !strings.Contains(err.Message, part) {
			t.Errorf("expected message to contain %q, got %q", part, err.Message)
		}
	}
	if err.Details["mode"] != "value" {
		t.Errorf("expected mode detail, got %v", err.Details["mode"])
	}
}

func TestAppError_ChainSealed_Success(t *testing.T) {
	err := ChainSealed("filter", "count")
	if err.Code != ErrCodeChainSealed {
		t.Errorf("expected CHAIN_SEALED, got %s", err.Code)
	}
	if err.Details["terminal"] != "count" {
		t.Errorf("expected terminal=count, got %v", err.Details["terminal"])
	}
}

func TestAppError_UnsupportedMode_Success(t *testing.T) {
	err := UnsupportedMode("pull", "feed")
	if err.Code != ErrCodeUnsupportedMode {
		t.Errorf("expected UNSUPPORTED_MODE, got %s", err.Code)
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("chain has two terminals")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NotFound("first element").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotFound("item").WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["resource"] != "item" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{
		"another": "detail",
	})
	if err.Details["another"] != "detail" {
		t.Error("expected another=detail to be merged")
	}
	if err.Details["extra"] != "info" {
		t.Error("expected extra=info to be preserved after second merge")
	}
}

func TestAppError_WithDetails_Nil(t *testing.T) {
	err := Internal(nil).WithDetails(nil)
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized even with nil input")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Unwrap_Success(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Internal(cause)
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if NotFound("x").Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("run failed: %w", TypeMismatch("field", "map", "x"))

	if !IsAppError(wrapped) {
		t.Fatal("expected wrapped AppError to be detected")
	}
	appErr, ok := AsAppError(wrapped)
	if !ok || appErr.Code != ErrCodeTypeMismatch {
		t.Fatalf("expected TYPE_MISMATCH, got %v", appErr)
	}
	if !HasCode(wrapped, ErrCodeTypeMismatch) {
		t.Error("HasCode should match through wrapping")
	}
	if HasCode(stderrors.New("plain"), ErrCodeTypeMismatch) {
		t.Error("HasCode should not match a plain error")
	}
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error should not convert")
	}
}
