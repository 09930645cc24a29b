package parser

import (
	"fmt"
	"strings"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
)

// ErrorKind classifies a parse-time failure.
type ErrorKind string

const (
	KindSyntax                 ErrorKind = "Syntax"
	KindUndeclaredIdentifier   ErrorKind = "UndeclaredIdentifier"
	KindDuplicateDeclaration   ErrorKind = "DuplicateDeclaration"
	KindTypeMismatch           ErrorKind = "TypeMismatch"
	KindUnknownMember          ErrorKind = "UnknownMember"
	KindNonConstantInitializer ErrorKind = "NonConstantInitializer"
	KindMissingFunction        ErrorKind = "MissingFunction"
	KindSignatureMismatch      ErrorKind = "SignatureMismatch"
	KindVoidDeclaration        ErrorKind = "VoidDeclaration"
	KindAmbiguousCall          ErrorKind = "AmbiguousCall"
	KindFunctionNotFound       ErrorKind = "FunctionNotFound"
	KindReadOnlyAssignment     ErrorKind = "ReadOnlyAssignment"
	KindMissingReturn          ErrorKind = "MissingReturn"
	KindInvalidArgumentMode    ErrorKind = "InvalidArgumentMode"
	KindLexical                ErrorKind = "Lexical"
)

// Sentinels for errors.Is. A ParsingError matches the sentinel of its Kind.
var (
	ErrSyntax                 = &ParsingError{Kind: KindSyntax}
	ErrUndeclaredIdentifier   = &ParsingError{Kind: KindUndeclaredIdentifier}
	ErrDuplicateDeclaration   = &ParsingError{Kind: KindDuplicateDeclaration}
	ErrTypeMismatch           = &ParsingError{Kind: KindTypeMismatch}
	ErrUnknownMember          = &ParsingError{Kind: KindUnknownMember}
	ErrNonConstantInitializer = &ParsingError{Kind: KindNonConstantInitializer}
	ErrMissingFunction        = &ParsingError{Kind: KindMissingFunction}
	ErrSignatureMismatch      = &ParsingError{Kind: KindSignatureMismatch}
	ErrVoidDeclaration        = &ParsingError{Kind: KindVoidDeclaration}
	ErrAmbiguousCall          = &ParsingError{Kind: KindAmbiguousCall}
	ErrFunctionNotFound       = &ParsingError{Kind: KindFunctionNotFound}
	ErrReadOnlyAssignment     = &ParsingError{Kind: KindReadOnlyAssignment}
	ErrMissingReturn          = &ParsingError{Kind: KindMissingReturn}
	ErrInvalidArgumentMode    = &ParsingError{Kind: KindInvalidArgumentMode}
	ErrLexical                = &ParsingError{Kind: KindLexical}
)

// ParsingError is a structured compile error with location information.
// No partial script is produced when one is returned.
type ParsingError struct {
	Kind    ErrorKind
	Message string

	// Line and Column are 1-indexed.
	Line   int
	Column int

	// Context holds the source lines around the error with a pointer (^)
	// under the error column.
	Context string

	Cause error
}

// Error implements the error interface.
func (e *ParsingError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Kind, e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Kind, e.Line, e.Column, e.Message)
}

// Is matches sentinels by kind.
func (e *ParsingError) Is(target error) bool {
	t, ok := target.(*ParsingError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

func (e *ParsingError) Unwrap() error { return e.Cause }

func newError(kind ErrorKind, pos lexer.Position, source, format string, args ...any) *ParsingError {
	return &ParsingError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
		Context: GenerateErrorContext(source, pos.Line, pos.Column),
	}
}

func wrapLexError(err *lexer.LexError, source string) *ParsingError {
	return &ParsingError{
		Kind:    KindLexical,
		Message: err.Error(),
		Line:    err.Line,
		Column:  err.Column,
		Context: GenerateErrorContext(source, err.Line, err.Column),
		Cause:   err,
	}
}

// GenerateErrorContext renders the two lines before and after line, with
// line numbers and a pointer (^) under column.
//
// Example output:
//
//	  2 | int x = 5;
//	  3 | int y = 10;
//	> 4 | int z = ;
//	    |         ^
//	  5 | int w = 20;
//	  6 | int v = 30;
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := max(line-3, 0)
	end := min(line+2, len(lines))
	width := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		n := i + 1
		text := strings.TrimRight(lines[i], "\r")
		if n != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", width, n, text)
			continue
		}
		fmt.Fprintf(&buf, "> %*d | %s\n", width, n, text)
		indent := strings.Repeat(" ", 2+width) + " | "
		if column > 1 {
			indent += strings.Repeat(" ", column-1)
		}
		buf.WriteString(indent + "^\n")
	}
	return buf.String()
}
