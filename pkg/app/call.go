package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
)

// Invocation is one parsed -call argument.
type Invocation struct {
	Name string
	Args []any
}

func (inv Invocation) String() string {
	parts := make([]string, len(inv.Args))
	for i, a := range inv.Args {
		if s, ok := a.(string); ok {
			parts[i] = strconv.Quote(s)
			continue
		}
		parts[i] = fmt.Sprint(a)
	}
	return inv.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ParseInvocation reads "Name(arg, ...)" where each argument is an int,
// double, bool or string literal. A bare name means no arguments.
func ParseInvocation(text string) (Invocation, error) {
	toks, err := lexer.New(text).Tokenize()
	if err != nil {
		return Invocation{}, fmt.Errorf("call %q: %w", text, err)
	}
	pos := 0
	next := func() lexer.Token {
		tok := toks[pos]
		if tok.Type != lexer.TOKEN_EOF {
			pos++
		}
		return tok
	}

	name := next()
	if name.Type != lexer.TOKEN_IDENT {
		return Invocation{}, fmt.Errorf("call %q: expected a function name", text)
	}
	inv := Invocation{Name: name.Literal}
	tok := next()
	if tok.Type == lexer.TOKEN_EOF {
		return inv, nil
	}
	if tok.Type != lexer.TOKEN_LPAREN {
		return Invocation{}, fmt.Errorf("call %q: expected ( after %s", text, name.Literal)
	}
	if toks[pos].Type == lexer.TOKEN_RPAREN {
		next()
	} else {
		for {
			arg, err := parseLiteral(next, toks[pos].Type)
			if err != nil {
				return Invocation{}, fmt.Errorf("call %q: argument %d: %w", text, len(inv.Args)+1, err)
			}
			inv.Args = append(inv.Args, arg)
			sep := next()
			if sep.Type == lexer.TOKEN_RPAREN {
				break
			}
			if sep.Type != lexer.TOKEN_COMMA {
				return Invocation{}, fmt.Errorf("call %q: expected , or ) at column %d", text, sep.Column)
			}
		}
	}
	if tok := next(); tok.Type != lexer.TOKEN_EOF {
		return Invocation{}, fmt.Errorf("call %q: unexpected %q after )", text, tok.Literal)
	}
	return inv, nil
}

func parseLiteral(next func() lexer.Token, peek lexer.TokenType) (any, error) {
	negative := false
	if peek == lexer.TOKEN_MINUS {
		next()
		negative = true
	}
	tok := next()
	switch tok.Type {
	case lexer.TOKEN_INT:
		base := 10
		lit := tok.Literal
		if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
			base, lit = 16, lit[2:]
		}
		v, err := strconv.ParseInt(lit, base, 64)
		if err != nil {
			return nil, err
		}
		if negative {
			v = -v
		}
		return v, nil
	case lexer.TOKEN_DOUBLE:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, err
		}
		if negative {
			v = -v
		}
		return v, nil
	}
	if negative {
		return nil, fmt.Errorf("- applies only to numbers")
	}
	switch tok.Type {
	case lexer.TOKEN_TRUE:
		return true, nil
	case lexer.TOKEN_FALSE:
		return false, nil
	case lexer.TOKEN_STRING:
		return tok.Literal, nil
	}
	return nil, fmt.Errorf("expected a literal, found %q", tok.Literal)
}
