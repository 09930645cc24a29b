package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lexer tokenizes script source code. It is a cursor: each call to NextToken
// advances past exactly one token.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int  // current line number
	column       int  // current column number, in runes
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokenize reads all tokens until EOF. The returned slice always ends with a
// single TOKEN_EOF token when err is nil.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token. Once EOF has been produced every further
// call returns EOF again.
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case '=':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(TOKEN_EQ), nil
		case '>':
			return l.twoCharToken(TOKEN_ARROW), nil
		}
		tok = l.newToken(TOKEN_ASSIGN)
	case '+':
		switch l.peekChar() {
		case '+':
			return l.twoCharToken(TOKEN_INCREMENT), nil
		case '=':
			return l.twoCharToken(TOKEN_PLUS_ASSIGN), nil
		}
		tok = l.newToken(TOKEN_PLUS)
	case '-':
		switch l.peekChar() {
		case '-':
			return l.twoCharToken(TOKEN_DECREMENT), nil
		case '=':
			return l.twoCharToken(TOKEN_MINUS_ASSIGN), nil
		}
		tok = l.newToken(TOKEN_MINUS)
	case '*':
		if l.peekChar() == '=' {
			return l.twoCharToken(TOKEN_MUL_ASSIGN), nil
		}
		tok = l.newToken(TOKEN_ASTERISK)
	case '/':
		if l.peekChar() == '=' {
			return l.twoCharToken(TOKEN_DIV_ASSIGN), nil
		}
		tok = l.newToken(TOKEN_SLASH)
	case '%':
		if l.peekChar() == '=' {
			return l.twoCharToken(TOKEN_MOD_ASSIGN), nil
		}
		tok = l.newToken(TOKEN_PERCENT)
	case '!':
		if l.peekChar() == '=' {
			return l.twoCharToken(TOKEN_NEQ), nil
		}
		tok = l.newToken(TOKEN_NOT)
	case '<':
		if l.peekChar() == '=' {
			return l.twoCharToken(TOKEN_LTE), nil
		}
		tok = l.newToken(TOKEN_LT)
	case '>':
		if l.peekChar() == '=' {
			return l.twoCharToken(TOKEN_GTE), nil
		}
		tok = l.newToken(TOKEN_GT)
	case '&':
		if l.peekChar() != '&' {
			return Token{}, l.errorf(InvalidCharacter, "unexpected character '&' (did you mean '&&'?)")
		}
		return l.twoCharToken(TOKEN_AND), nil
	case '|':
		if l.peekChar() != '|' {
			return Token{}, l.errorf(InvalidCharacter, "unexpected character '|' (did you mean '||'?)")
		}
		return l.twoCharToken(TOKEN_OR), nil
	case '?':
		tok = l.newToken(TOKEN_QUESTION)
	case ':':
		tok = l.newToken(TOKEN_COLON)
	case '(':
		tok = l.newToken(TOKEN_LPAREN)
	case ')':
		tok = l.newToken(TOKEN_RPAREN)
	case '{':
		tok = l.newToken(TOKEN_LBRACE)
	case '}':
		tok = l.newToken(TOKEN_RBRACE)
	case '[':
		tok = l.newToken(TOKEN_LBRACKET)
	case ']':
		tok = l.newToken(TOKEN_RBRACKET)
	case ',':
		tok = l.newToken(TOKEN_COMMA)
	case ';':
		tok = l.newToken(TOKEN_SEMICOLON)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber(tok.Line, tok.Column)
		}
		tok = l.newToken(TOKEN_DOT)
	case '"':
		s, err := l.readString()
		if err != nil {
			return Token{}, err
		}
		tok.Type = TOKEN_STRING
		tok.Literal = s
	case 0:
		if l.position >= len(l.input) {
			tok.Type = TOKEN_EOF
			tok.Literal = ""
			return tok, nil
		}
		return Token{}, l.errorf(InvalidCharacter, "unexpected NUL byte")
	default:
		if isLetter(l.ch) {
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			return tok, nil
		}
		if isDigit(l.ch) {
			return l.readNumber(tok.Line, tok.Column)
		}
		r, _ := utf8.DecodeRuneInString(l.input[l.position:])
		return Token{}, l.errorf(InvalidCharacter, "unexpected character %q", r)
	}

	l.readChar()
	return tok, nil
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	if l.position < len(l.input) && l.readPosition > 0 && l.input[l.position] == '\n' {
		l.line++
		l.column = 0
	}
	l.position = l.readPosition
	l.readPosition++
	// columns count runes; UTF-8 continuation bytes share their rune's column
	if !utf8.RuneStart(l.ch) {
		return
	}
	l.column++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) twoCharToken(tokenType TokenType) Token {
	tok := Token{Type: tokenType, Line: l.line, Column: l.column}
	first := l.ch
	l.readChar()
	tok.Literal = string(first) + string(l.ch)
	l.readChar()
	return tok
}

// readIdentifier reads an identifier.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a number (integer, double, or hexadecimal).
func (l *Lexer) readNumber(line, column int) (Token, error) {
	position := l.position

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar() // consume '0'
		l.readChar() // consume 'x' or 'X'
		digits := l.position
		for isHexDigit(l.ch) {
			l.readChar()
		}
		literal := l.input[position:l.position]
		if l.position == digits {
			return Token{}, &LexError{Kind: InvalidLiteral, Line: line, Column: column,
				Message: "hexadecimal literal has no digits"}
		}
		if _, err := strconv.ParseInt(literal[2:], 16, 64); err != nil {
			return Token{}, &LexError{Kind: InvalidLiteral, Line: line, Column: column,
				Message: "integer literal " + literal + " out of range"}
		}
		return Token{Type: TOKEN_INT, Literal: literal, Line: line, Column: column}, nil
	}

	isDouble := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isDouble = true
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			isDouble = true
			l.readChar() // consume 'e'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			if !isDigit(l.ch) {
				return Token{}, &LexError{Kind: InvalidLiteral, Line: line, Column: column,
					Message: "malformed exponent in numeric literal"}
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	literal := l.input[position:l.position]
	if l.ch == 'd' || l.ch == 'D' || l.ch == 'f' || l.ch == 'F' {
		isDouble = true
		l.readChar()
	}

	if isDouble {
		if _, err := strconv.ParseFloat(literal, 64); err != nil {
			return Token{}, &LexError{Kind: InvalidLiteral, Line: line, Column: column,
				Message: "invalid floating point literal " + literal}
		}
		return Token{Type: TOKEN_DOUBLE, Literal: literal, Line: line, Column: column}, nil
	}
	if _, err := strconv.ParseInt(literal, 10, 64); err != nil {
		return Token{}, &LexError{Kind: InvalidLiteral, Line: line, Column: column,
			Message: "integer literal " + literal + " out of range"}
	}
	return Token{Type: TOKEN_INT, Literal: literal, Line: line, Column: column}, nil
}

// readString reads a string literal and returns its unescaped value.
func (l *Lexer) readString() (string, error) {
	line, column := l.line, l.column
	var buf strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case '"':
			return buf.String(), nil
		case 0, '\n':
			if l.ch == 0 && l.position < len(l.input) {
				buf.WriteByte(0)
				continue
			}
			return "", &LexError{Kind: UnterminatedLiteral, Line: line, Column: column,
				Message: "unterminated string literal"}
		case '\\':
			l.readChar()
			switch l.ch {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			case 'r':
				buf.WriteByte('\r')
			case '0':
				buf.WriteByte(0)
			case 0:
				return "", &LexError{Kind: UnterminatedLiteral, Line: line, Column: column,
					Message: "unterminated string literal"}
			default:
				return "", l.errorf(InvalidCharacter, "unknown escape sequence '\\%c'", l.ch)
			}
		default:
			buf.WriteByte(l.ch)
		}
	}
}

// skipWhitespaceAndComments skips whitespace, line comments and block comments.
func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			line, column := l.line, l.column
			l.readChar() // consume /
			l.readChar() // consume *
			for {
				if l.atEnd() {
					return &LexError{Kind: UnterminatedLiteral, Line: line, Column: column,
						Message: "unterminated block comment"}
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				l.readChar()
			}
		default:
			return nil
		}
	}
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// newToken creates a single-character token at the current position.
func (l *Lexer) newToken(tokenType TokenType) Token {
	return Token{Type: tokenType, Literal: string(l.ch), Line: l.line, Column: l.column}
}

func (l *Lexer) errorf(kind LexErrorKind, format string, args ...any) *LexError {
	return newLexError(kind, l.line, l.column, format, args...)
}

// isLetter checks if a character can start an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if a character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isHexDigit checks if a character is a hexadecimal digit.
func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
