package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/modellist/pkg/modellist"
)

// RuntimeError is an error detected while applying a script step.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunToken identifies the affected run.
	RunToken string

	// Step is the zero-based index of the failing step, -1 when the error
	// is not tied to one.
	Step int

	// Op is the operation name of the failing step.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownOperation indicates a step names no registered operation.
	ErrCodeUnknownOperation RuntimeErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeInvalidArgument indicates a missing or mistyped argument.
	ErrCodeInvalidArgument RuntimeErrorCode = "INVALID_ARGUMENT"

	// ErrCodeIndexOutOfRange indicates a set outside the current length.
	ErrCodeIndexOutOfRange RuntimeErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeIdentityChanged indicates the bindable sequence was replaced.
	ErrCodeIdentityChanged RuntimeErrorCode = "IDENTITY_CHANGED"

	// ErrCodeLengthDesync indicates the stored length drifted from the
	// backing sequence.
	ErrCodeLengthDesync RuntimeErrorCode = "LENGTH_DESYNC"

	// ErrCodeExpressionFailed indicates a function argument did not compile
	// or failed while running.
	ErrCodeExpressionFailed RuntimeErrorCode = "EXPRESSION_FAILED"

	// ErrCodeQuotaExceeded indicates a script longer than the max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		msg = fmt.Sprintf("%s (step=%d, op=%s)", msg, e.Step, e.Op)
	}
	if e.RunToken != "" {
		msg = fmt.Sprintf("%s [run=%s]", msg, e.RunToken)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the RuntimeErrorCode carried by err, or "" when err is
// not a RuntimeError.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == ErrCodeInvalidArgument
}

// IsInvariantViolation reports whether err means a list invariant broke.
func IsInvariantViolation(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeIdentityChanged || code == ErrCodeLengthDesync
}

// IsQuotaError reports whether err is a max-steps error.
func IsQuotaError(err error) bool {
	return CodeOf(err) == ErrCodeQuotaExceeded
}

func newError(code RuntimeErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Step: -1}
}

func expressionError(expression string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeExpressionFailed,
		Message: fmt.Sprintf("expression %q", expression),
		Step:    -1,
		Err:     err,
	}
}

// listError translates the sticky error of a list into a RuntimeError.
func listError(err error) *RuntimeError {
	code := ErrCodeInvalidArgument
	if errors.Is(err, modellist.ErrIndexOutOfRange) {
		code = ErrCodeIndexOutOfRange
	}
	return &RuntimeError{Code: code, Message: "list rejected the call", Step: -1, Err: err}
}
