package interp

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the type of engine fault.
type Code int

// Stable fault codes - do not change values.
const (
	CodeUnknownSymbol Code = 2001 // QE2001: call to an unbound external symbol
	CodeUnsupported   Code = 2002 // QE2002: IR construct outside the supported subset
	CodeBadOperand    Code = 2003 // QE2003: invalid operand (undefined value, zero divisor, bad index or branch target)
	CodeMemory        Code = 2004 // QE2004: memory access fault
	CodeBackend       Code = 2005 // QE2005: error raised by a backend method
	CodeNoFunction    Code = 2006 // QE2006: call target is not executable
)

// String returns the code as "QE2001" format.
func (c Code) String() string {
	return fmt.Sprintf("QE%d", int(c))
}

// ErrUnknownSymbol is the sentinel wrapped by CodeUnknownSymbol faults, so
// callers can match with errors.Is.
var ErrUnknownSymbol = errors.New("unknown quantum symbol")

// Error represents a fault raised while interpreting IR. Backend errors
// travel inside unchanged; Unwrap exposes them to errors.Is/As.
type Error struct {
	Code      Code
	Message   string
	Backtrace []string // function names, innermost first
	wrapped   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fault %s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.wrapped }

// Format renders the fault with its backtrace.
func (e *Error) Format() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if len(e.Backtrace) > 0 {
		sb.WriteString("\nbacktrace:\n")
		for i, fn := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s\n", i, fn)
		}
	}
	return sb.String()
}

// fault constructs an Error carrying the current call stack.
func (e *Engine) fault(code Code, msg string) *Error {
	return e.faultWrap(code, msg, nil)
}

func (e *Engine) faultf(code Code, format string, args ...any) *Error {
	return e.faultWrap(code, fmt.Sprintf(format, args...), nil)
}

func (e *Engine) faultWrap(code Code, msg string, cause error) *Error {
	bt := make([]string, 0, len(e.stack))
	for i := len(e.stack) - 1; i >= 0; i-- {
		bt = append(bt, e.stack[i].Fn.Name())
	}
	return &Error{Code: code, Message: msg, Backtrace: bt, wrapped: cause}
}
