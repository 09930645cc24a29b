// Package lexer provides lexical analysis for adaptive-algorithm scripts.
package lexer

import "fmt"

// TokenType represents the type of a token.
type TokenType int

// Token types
const (
	// Special tokens
	TOKEN_ILLEGAL TokenType = iota
	TOKEN_EOF

	// Literals
	TOKEN_IDENT  // identifier
	TOKEN_INT    // integer literal
	TOKEN_DOUBLE // floating point literal
	TOKEN_STRING // string literal

	// Operators
	TOKEN_PLUS        // +
	TOKEN_MINUS       // -
	TOKEN_ASTERISK    // *
	TOKEN_SLASH       // /
	TOKEN_PERCENT     // %
	TOKEN_ASSIGN      // =
	TOKEN_PLUS_ASSIGN // +=
	TOKEN_MINUS_ASSIGN
	TOKEN_MUL_ASSIGN
	TOKEN_DIV_ASSIGN
	TOKEN_MOD_ASSIGN
	TOKEN_INCREMENT // ++
	TOKEN_DECREMENT // --
	TOKEN_EQ        // ==
	TOKEN_NEQ       // !=
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LTE       // <=
	TOKEN_GTE       // >=
	TOKEN_AND       // &&
	TOKEN_OR        // ||
	TOKEN_NOT       // !
	TOKEN_QUESTION  // ?
	TOKEN_COLON     // :
	TOKEN_ARROW     // =>

	// Delimiters
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACE    // {
	TOKEN_RBRACE    // }
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_DOT       // .

	// Keywords
	TOKEN_GLOBAL
	TOKEN_EXTERN
	TOKEN_CONST
	TOKEN_IN
	TOKEN_REF
	TOKEN_OUT
	TOKEN_PARAMS
	TOKEN_IF
	TOKEN_ELSE
	TOKEN_WHILE
	TOKEN_DO
	TOKEN_FOR
	TOKEN_FOREACH
	TOKEN_BREAK
	TOKEN_CONTINUE
	TOKEN_RETURN
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NEW
	TOKEN_VOID
	TOKEN_BOOL
	TOKEN_INT_TYPE
	TOKEN_DOUBLE_TYPE
	TOKEN_FLOAT_TYPE
	TOKEN_STRING_TYPE
)

// Position is a 1-indexed source location.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// Pos returns the token's source position.
func (t Token) Pos() Position {
	return Position{Line: t.Line, Column: t.Column}
}

// tokenTypeNames maps TokenType to its string representation.
var tokenTypeNames = map[TokenType]string{
	TOKEN_ILLEGAL: "ILLEGAL",
	TOKEN_EOF:     "EOF",

	TOKEN_IDENT:  "IDENT",
	TOKEN_INT:    "INT",
	TOKEN_DOUBLE: "DOUBLE",
	TOKEN_STRING: "STRING",

	TOKEN_PLUS:         "+",
	TOKEN_MINUS:        "-",
	TOKEN_ASTERISK:     "*",
	TOKEN_SLASH:        "/",
	TOKEN_PERCENT:      "%",
	TOKEN_ASSIGN:       "=",
	TOKEN_PLUS_ASSIGN:  "+=",
	TOKEN_MINUS_ASSIGN: "-=",
	TOKEN_MUL_ASSIGN:   "*=",
	TOKEN_DIV_ASSIGN:   "/=",
	TOKEN_MOD_ASSIGN:   "%=",
	TOKEN_INCREMENT:    "++",
	TOKEN_DECREMENT:    "--",
	TOKEN_EQ:           "==",
	TOKEN_NEQ:          "!=",
	TOKEN_LT:           "<",
	TOKEN_GT:           ">",
	TOKEN_LTE:          "<=",
	TOKEN_GTE:          ">=",
	TOKEN_AND:          "&&",
	TOKEN_OR:           "||",
	TOKEN_NOT:          "!",
	TOKEN_QUESTION:     "?",
	TOKEN_COLON:        ":",
	TOKEN_ARROW:        "=>",

	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACE:    "{",
	TOKEN_RBRACE:    "}",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",
	TOKEN_COMMA:     ",",
	TOKEN_SEMICOLON: ";",
	TOKEN_DOT:       ".",

	TOKEN_GLOBAL:      "global",
	TOKEN_EXTERN:      "extern",
	TOKEN_CONST:       "const",
	TOKEN_IN:          "in",
	TOKEN_REF:         "ref",
	TOKEN_OUT:         "out",
	TOKEN_PARAMS:      "params",
	TOKEN_IF:          "if",
	TOKEN_ELSE:        "else",
	TOKEN_WHILE:       "while",
	TOKEN_DO:          "do",
	TOKEN_FOR:         "for",
	TOKEN_FOREACH:     "foreach",
	TOKEN_BREAK:       "break",
	TOKEN_CONTINUE:    "continue",
	TOKEN_RETURN:      "return",
	TOKEN_TRUE:        "true",
	TOKEN_FALSE:       "false",
	TOKEN_NEW:         "new",
	TOKEN_VOID:        "void",
	TOKEN_BOOL:        "bool",
	TOKEN_INT_TYPE:    "int",
	TOKEN_DOUBLE_TYPE: "double",
	TOKEN_FLOAT_TYPE:  "float",
	TOKEN_STRING_TYPE: "string",
}

// String returns a string representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsKeyword returns true if the token type is a keyword.
func (t TokenType) IsKeyword() bool {
	return t >= TOKEN_GLOBAL && t <= TOKEN_STRING_TYPE
}

// IsOperator returns true if the token type is an operator.
func (t TokenType) IsOperator() bool {
	return t >= TOKEN_PLUS && t <= TOKEN_ARROW
}

// IsLiteral returns true if the token type is a literal.
func (t TokenType) IsLiteral() bool {
	return t >= TOKEN_IDENT && t <= TOKEN_STRING
}

// IsTypeKeyword reports whether the token names a built-in type.
func (t TokenType) IsTypeKeyword() bool {
	return t >= TOKEN_VOID && t <= TOKEN_STRING_TYPE
}

// IsArgumentMode reports whether the token is a parameter passing modifier.
func (t TokenType) IsArgumentMode() bool {
	switch t {
	case TOKEN_IN, TOKEN_REF, TOKEN_OUT, TOKEN_PARAMS:
		return true
	}
	return false
}

// keywords maps keyword strings to their TokenType. Keywords are case-sensitive.
var keywords = map[string]TokenType{
	"global":   TOKEN_GLOBAL,
	"extern":   TOKEN_EXTERN,
	"const":    TOKEN_CONST,
	"in":       TOKEN_IN,
	"ref":      TOKEN_REF,
	"out":      TOKEN_OUT,
	"params":   TOKEN_PARAMS,
	"if":       TOKEN_IF,
	"else":     TOKEN_ELSE,
	"while":    TOKEN_WHILE,
	"do":       TOKEN_DO,
	"for":      TOKEN_FOR,
	"foreach":  TOKEN_FOREACH,
	"break":    TOKEN_BREAK,
	"continue": TOKEN_CONTINUE,
	"return":   TOKEN_RETURN,
	"true":     TOKEN_TRUE,
	"false":    TOKEN_FALSE,
	"new":      TOKEN_NEW,
	"void":     TOKEN_VOID,
	"bool":     TOKEN_BOOL,
	"int":      TOKEN_INT_TYPE,
	"double":   TOKEN_DOUBLE_TYPE,
	"float":    TOKEN_FLOAT_TYPE,
	"string":   TOKEN_STRING_TYPE,
}

// LookupIdent returns the keyword token type for ident, or TOKEN_IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}
