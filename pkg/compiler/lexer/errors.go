package lexer

import "fmt"

// LexErrorKind classifies lexical failures.
type LexErrorKind string

const (
	UnterminatedLiteral LexErrorKind = "UnterminatedLiteral"
	InvalidCharacter    LexErrorKind = "InvalidCharacter"
	InvalidLiteral      LexErrorKind = "InvalidLiteral"
)

// LexError reports a lexical failure with the 1-indexed location where the
// offending token started.
type LexError struct {
	Kind    LexErrorKind
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s (%s)", e.Line, e.Column, e.Message, e.Kind)
}

func newLexError(kind LexErrorKind, line, column int, format string, args ...any) *LexError {
	return &LexError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
	}
}
