// Package runtime provides the runtime context chain, execution state and
// runtime error model of the script interpreter.
package runtime

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	ErrorUndefinedVar      ErrorType = "UNDEFINED_VARIABLE"
	ErrorTypeMismatch      ErrorType = "TYPE_MISMATCH"
	ErrorArgumentCount     ErrorType = "ARGUMENT_COUNT"
	ErrorAmbiguousOverload ErrorType = "AMBIGUOUS_OVERLOAD"
	ErrorMissingGlobal     ErrorType = "MISSING_GLOBAL"
	ErrorFunctionNotFound  ErrorType = "FUNCTION_NOT_FOUND"
	ErrorDivisionByZero    ErrorType = "DIVISION_BY_ZERO"
	ErrorIndexOutOfRange   ErrorType = "INDEX_OUT_OF_RANGE"
	ErrorStackOverflow     ErrorType = "STACK_OVERFLOW"
	ErrorHostCall          ErrorType = "HOST_CALL_FAILED"
	ErrorInvalidState      ErrorType = "INVALID_STATE"
)

// Sentinels for errors.Is. A RuntimeError matches the sentinel of its Type.
var (
	ErrUndefinedVar      = &RuntimeError{Type: ErrorUndefinedVar}
	ErrTypeMismatch      = &RuntimeError{Type: ErrorTypeMismatch}
	ErrArgumentCount     = &RuntimeError{Type: ErrorArgumentCount}
	ErrAmbiguousOverload = &RuntimeError{Type: ErrorAmbiguousOverload}
	ErrMissingGlobal     = &RuntimeError{Type: ErrorMissingGlobal}
	ErrFunctionNotFound  = &RuntimeError{Type: ErrorFunctionNotFound}
	ErrDivisionByZero    = &RuntimeError{Type: ErrorDivisionByZero}
	ErrIndexOutOfRange   = &RuntimeError{Type: ErrorIndexOutOfRange}
	ErrStackOverflow     = &RuntimeError{Type: ErrorStackOverflow}
	ErrHostCall          = &RuntimeError{Type: ErrorHostCall}
	ErrInvalidState      = &RuntimeError{Type: ErrorInvalidState}
)

// RuntimeError represents a failure while preparing or executing a script.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Line    int // Line number if available, 0 otherwise
	Cause   error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] %s at line %d", e.Type, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Is matches sentinels by error type.
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == ""
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewRuntimeErrorWithLine creates a new RuntimeError with line information.
func NewRuntimeErrorWithLine(errType ErrorType, line int, format string, args ...any) *RuntimeError {
	e := NewRuntimeError(errType, format, args...)
	e.Line = line
	return e
}

// NewUndefinedVariableError creates an undefined variable error.
func NewUndefinedVariableError(name string) *RuntimeError {
	return NewRuntimeError(ErrorUndefinedVar, "undefined variable: %s", name)
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(depth, max int) *RuntimeError {
	return NewRuntimeError(ErrorStackOverflow, "stack overflow: depth %d exceeds maximum %d", depth, max)
}

// WithLine attaches a line to err if it is a RuntimeError without one.
func WithLine(err error, line int) error {
	var re *RuntimeError
	if errors.As(err, &re) && re.Line == 0 {
		re.Line = line
	}
	return err
}

// ErrOperationCancelled matches every cancellation raised at a checkpoint.
var ErrOperationCancelled = errors.New("operation cancelled")

// CancelledError is raised when a timeout or external cancellation is
// observed at a statement or call boundary. It is not a script logic error.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return "operation cancelled: timeout expired"
	}
	return "operation cancelled"
}

// Unwrap exposes both ErrOperationCancelled and the context error.
func (e *CancelledError) Unwrap() []error {
	return []error{ErrOperationCancelled, e.Cause}
}
