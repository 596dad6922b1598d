package vrl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hanzai/vrl/pkg/value"
)

// Sentinels carried by ArgumentError.
var (
	ErrUnknownKeyword    = errors.New("unknown keyword")
	ErrDuplicateArgument = errors.New("duplicate argument")
	ErrTooManyArguments  = errors.New("too many arguments")
	ErrMissingArgument   = errors.New("missing required argument")
	ErrArgumentKind      = errors.New("invalid argument type")
)

// ArgumentError reports a call site that does not fit a function's parameter
// schema.
type ArgumentError struct {
	Function string
	Keyword  string
	Detail   string
	Err      error
}

func (e *ArgumentError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Function)
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	if e.Keyword != "" {
		fmt.Fprintf(&sb, " %q", e.Keyword)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// ExpectedStaticExpressionError is returned when an argument that configures
// a function must be known at compile time but depends on runtime data.
type ExpectedStaticExpressionError struct {
	Keyword string
	Expr    string
}

func (e *ExpectedStaticExpressionError) Error() string {
	return fmt.Sprintf("expected static expression for argument %q, got %s", e.Keyword, e.Expr)
}

// InvalidArgumentError is returned when a compile-time constant argument
// fails the function's own validation.
type InvalidArgumentError struct {
	Keyword string
	Value   string
	Reason  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q (%s): %s", e.Keyword, e.Value, e.Reason)
}

// UnexpectedExpressionError is returned when an argument must have a
// particular shape at compile time, such as an array literal.
type UnexpectedExpressionError struct {
	Keyword  string
	Expected string
	Expr     string
}

func (e *UnexpectedExpressionError) Error() string {
	return fmt.Sprintf("unexpected expression for argument %q: expected %s, got %s", e.Keyword, e.Expected, e.Expr)
}

// UndefinedFunctionError is returned for call sites naming no registered
// function.
type UndefinedFunctionError struct {
	Ident string
}

func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("call to undefined function %q", e.Ident)
}

// FunctionCallError attaches the call site to an error returned by a
// function's compile step.
type FunctionCallError struct {
	Ident string
	Err   error
}

func (e *FunctionCallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Ident, e.Err)
}

func (e *FunctionCallError) Unwrap() error {
	return e.Err
}

// SyntaxError is returned by the parser.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Msg)
}

// Location converts the byte offset into a 1-based line and column.
func (e *SyntaxError) Location(source string) (line, column int) {
	pos := min(max(e.Pos, 0), len(source))
	before := source[:pos]
	line = strings.Count(before, "\n") + 1
	column = pos - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, column
}

// Highlight renders the error with the offending line and up to two lines
// of context on either side, marking the column with a caret.
func (e *SyntaxError) Highlight(filename, source string) string {
	line, column := e.Location(source)
	lines := strings.Split(source, "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "error: %s\n", e.Msg)
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", filename, line, column)
	fmt.Fprintf(&b, "    |\n")
	for i := max(1, line-2); i <= min(len(lines), line+2); i++ {
		fmt.Fprintf(&b, "%3d | %s\n", i, lines[i-1])
		if i == line {
			fmt.Fprintf(&b, "    | %s^\n", strings.Repeat(" ", column-1))
		}
	}
	fmt.Fprintf(&b, "    |\n")
	return b.String()
}

// ExpressionError is a runtime failure of one expression for one record.
type ExpressionError struct {
	Message string
}

// NewExpressionError creates a runtime failure with a stable reason.
func NewExpressionError(format string, args ...any) *ExpressionError {
	if len(args) == 0 {
		return &ExpressionError{Message: format}
	}
	return &ExpressionError{Message: fmt.Sprintf(format, args...)}
}

func (e *ExpressionError) Error() string {
	return e.Message
}

// AbortError is raised when an expression asserted infallible with `!`
// fails anyway. It fails the whole record.
type AbortError struct {
	Expr string
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: %s", e.Expr, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// OperandError is returned when an operator can never apply to the kinds of
// its operands.
type OperandError struct {
	Op          string
	Left, Right value.Kind
}

func (e *OperandError) Error() string {
	return fmt.Sprintf("invalid operands for %q: %s and %s", e.Op, e.Left, e.Right)
}

// UndefinedVariableError is returned when a variable is read before it is
// assigned.
type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}
