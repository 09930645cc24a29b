// Package parser compiles script source into a typed syntax tree.
//
// Parsing runs in three passes over the token stream. The first scans the
// top-level declarations, records every name and captures initializer and
// function body token spans. The second parses initializers in source order,
// so a variable initializer only sees declarations above it. The third
// parses function bodies once every declaration and function signature is
// known, which permits forward references and mutual recursion.
package parser

import (
	"errors"
	"fmt"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Config carries the host-provided inputs of a compilation.
type Config struct {
	// Registry resolves host members. A nil Registry means no host members.
	Registry *interop.Registry
	// Required lists function signatures the script must define.
	Required []types.FunctionSignature
}

// Program is the result of a successful parse.
type Program struct {
	Source       string
	Declarations []ast.Declaration
	Functions    []*ast.Function
}

type (
	prefixParseFn func() (ast.Expression, error)
	infixParseFn  func(ast.Expression) (ast.Expression, error)
)

// Parser holds the state of one compilation.
type Parser struct {
	source   string
	toks     []lexer.Token
	pos      int
	end      int
	ctx      *CompilationContext
	registry *interop.Registry

	// readOnly marks expression nodes that name a const or an in parameter.
	readOnly map[ast.Expression]string

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// pendingDecl is a script-level variable found by the declaration scan.
type pendingDecl struct {
	kind    symbolKind
	typ     types.Type
	name    lexer.Token
	hasInit bool
	start   int
	end     int
}

// pendingBody is a function body span found by the declaration scan.
type pendingBody struct {
	fn    *ast.Function
	arrow bool
	start int
	end   int
}

// Parse compiles source. The returned error is a *ParsingError.
func Parse(source string, cfg Config) (*Program, error) {
	toks, err := lexer.New(source).Tokenize()
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, wrapLexError(le, source)
		}
		return nil, err
	}
	p := newParser(source, toks, cfg.Registry)

	decls, bodies, err := p.scanDeclarations()
	if err != nil {
		return nil, err
	}
	program := &Program{Source: source}
	for _, d := range decls {
		decl, err := p.parseDeclaration(d)
		if err != nil {
			return nil, err
		}
		if decl != nil {
			program.Declarations = append(program.Declarations, decl)
		}
	}
	for _, b := range bodies {
		if err := p.parseBody(b); err != nil {
			return nil, err
		}
	}
	program.Functions = p.ctx.order

	if err := p.checkRequired(cfg.Required); err != nil {
		return nil, err
	}
	return program, nil
}

func newParser(source string, toks []lexer.Token, registry *interop.Registry) *Parser {
	if registry == nil {
		registry = interop.NewRegistry()
	}
	p := &Parser{
		source:   source,
		toks:     toks,
		end:      len(toks),
		ctx:      NewCompilationContext(),
		registry: registry,
		readOnly: make(map[ast.Expression]string),
	}
	p.registerParseFns()
	return p
}

// scanDeclarations is the first pass.
func (p *Parser) scanDeclarations() ([]pendingDecl, []pendingBody, error) {
	var decls []pendingDecl
	var bodies []pendingBody
	for !p.at(lexer.TOKEN_EOF) {
		kind := symbolMember
		switch p.cur().Type {
		case lexer.TOKEN_GLOBAL:
			kind = symbolGlobal
			p.advance()
		case lexer.TOKEN_EXTERN:
			kind = symbolExtern
			p.advance()
		case lexer.TOKEN_CONST:
			kind = symbolConst
			p.advance()
		default:
			if !p.isTypeStart() {
				return nil, nil, p.errorf(KindSyntax, p.cur().Pos(),
					"expected a declaration, found %s", describe(p.cur()))
			}
		}

		typ, typTok, err := p.parseType()
		if err != nil {
			return nil, nil, err
		}
		name, err := p.expect(lexer.TOKEN_IDENT, "an identifier")
		if err != nil {
			return nil, nil, err
		}

		if p.at(lexer.TOKEN_LPAREN) {
			if kind != symbolMember {
				return nil, nil, p.errorf(KindSyntax, name.Pos(),
					"function %s cannot be declared global, extern or const", name.Literal)
			}
			body, err := p.scanFunction(typ, name)
			if err != nil {
				return nil, nil, err
			}
			bodies = append(bodies, body)
			continue
		}

		if typ.IsVoid() {
			return nil, nil, p.errorf(KindVoidDeclaration, typTok.Pos(),
				"variable %s cannot be declared void", name.Literal)
		}
		if !p.ctx.reserve(name.Literal, name.Pos(), false) {
			return nil, nil, p.errorf(KindDuplicateDeclaration, name.Pos(),
				"%s is already declared", name.Literal)
		}
		d := pendingDecl{kind: kind, typ: typ, name: name}
		if p.at(lexer.TOKEN_ASSIGN) {
			if kind == symbolExtern {
				return nil, nil, p.errorf(KindSyntax, p.cur().Pos(),
					"extern global %s cannot have an initializer", name.Literal)
			}
			p.advance()
			d.hasInit = true
			d.start = p.pos
			if d.end, err = p.skipTo(lexer.TOKEN_SEMICOLON); err != nil {
				return nil, nil, err
			}
			if d.start == d.end {
				return nil, nil, p.errorf(KindSyntax, p.cur().Pos(), "expected an expression, found ;")
			}
		} else if kind == symbolConst {
			return nil, nil, p.errorf(KindNonConstantInitializer, name.Pos(),
				"const %s requires an initializer", name.Literal)
		}
		if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
			return nil, nil, err
		}
		decls = append(decls, d)
	}
	return decls, bodies, nil
}

func (p *Parser) scanFunction(ret types.Type, name lexer.Token) (pendingBody, error) {
	args, err := p.parseParameters(true)
	if err != nil {
		return pendingBody{}, err
	}
	fn := &ast.Function{
		Position:  name.Pos(),
		Signature: types.NewFunctionSignature(name.Literal, ret, args...),
	}
	if !p.ctx.reserve(name.Literal, name.Pos(), true) {
		return pendingBody{}, p.errorf(KindDuplicateDeclaration, name.Pos(),
			"%s is already declared", name.Literal)
	}
	if other := p.ctx.declareFunction(fn); other != nil {
		return pendingBody{}, p.errorf(KindDuplicateDeclaration, name.Pos(),
			"function %s conflicts with %s declared at line %d", fn.Signature, other.Signature, other.Position.Line)
	}

	b := pendingBody{fn: fn}
	switch p.cur().Type {
	case lexer.TOKEN_LBRACE:
		open := p.pos
		closing, err := p.skipBlock()
		if err != nil {
			return pendingBody{}, err
		}
		b.start, b.end = open+1, closing
	case lexer.TOKEN_ARROW:
		p.advance()
		b.arrow = true
		b.start = p.pos
		if b.end, err = p.skipTo(lexer.TOKEN_SEMICOLON); err != nil {
			return pendingBody{}, err
		}
		if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
			return pendingBody{}, err
		}
	default:
		return pendingBody{}, p.errorf(KindSyntax, p.cur().Pos(),
			"expected { or => after the parameters of %s, found %s", name.Literal, describe(p.cur()))
	}
	return b, nil
}

// parseDeclaration is the second pass for one script-level variable.
func (p *Parser) parseDeclaration(d pendingDecl) (ast.Declaration, error) {
	var init ast.Expression
	if d.hasInit {
		restore := p.span(d.start, d.end)
		expr, err := p.parseExpression(LOWEST)
		if err == nil {
			err = p.expectEnd()
		}
		restore()
		if err != nil {
			return nil, err
		}
		if !types.Assignable(expr.Type(), d.typ) {
			return nil, p.errorf(KindTypeMismatch, expr.Pos(),
				"cannot initialize %s %s with a value of type %s", d.typ, d.name.Literal, expr.Type())
		}
		init = ast.Fold(expr)
	}

	sym := &symbol{name: d.name.Literal, typ: d.typ, kind: d.kind, pos: d.name.Pos()}
	var decl ast.Declaration
	switch d.kind {
	case symbolConst:
		lit, ok := init.(*ast.Literal)
		if !ok {
			return nil, p.errorf(KindNonConstantInitializer, init.Pos(),
				"initializer of const %s is not a constant expression", d.name.Literal)
		}
		v, err := types.Widen(lit.Value, d.typ)
		if err != nil {
			return nil, p.errorf(KindTypeMismatch, init.Pos(), "%v", err)
		}
		sym.readOnly = true
		sym.constant = &ast.Literal{Position: lit.Position, Value: v}
	case symbolGlobal, symbolExtern:
		decl = &ast.GlobalDeclaration{
			Position: d.name.Pos(),
			Name:     d.name.Literal,
			VarType:  d.typ,
			Init:     init,
			Extern:   d.kind == symbolExtern,
		}
	default:
		decl = &ast.MemberDeclaration{
			Position: d.name.Pos(),
			Name:     d.name.Literal,
			VarType:  d.typ,
			Init:     init,
		}
	}
	p.ctx.defineScript(sym)
	return decl, nil
}

// parseBody is the third pass for one function.
func (p *Parser) parseBody(b pendingBody) error {
	sig := b.fn.Signature
	p.ctx.enterFunction(b.fn)
	defer p.ctx.leaveFunction()
	for _, a := range sig.Arguments {
		p.ctx.declareLocal(&symbol{
			name:     a.Identifier,
			typ:      a.Type,
			kind:     symbolParameter,
			readOnly: a.Mode == types.In,
			pos:      b.fn.Position,
		})
	}

	restore := p.span(b.start, b.end)
	defer restore()

	if b.arrow {
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return err
		}
		if err := p.expectEnd(); err != nil {
			return err
		}
		if sig.ReturnType.IsVoid() {
			b.fn.SetBody([]ast.Statement{&ast.ExpressionStatement{Position: expr.Pos(), Expr: expr}})
			return nil
		}
		if !types.Assignable(expr.Type(), sig.ReturnType) {
			return p.errorf(KindTypeMismatch, expr.Pos(),
				"%s returns %s, expression has type %s", sig.Identifier, sig.ReturnType, expr.Type())
		}
		b.fn.SetBody([]ast.Statement{&ast.Return{Position: expr.Pos(), Value: expr, To: sig.ReturnType}})
		return nil
	}

	var body []ast.Statement
	for !p.at(lexer.TOKEN_EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return err
		}
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	if !sig.ReturnType.IsVoid() && !alwaysReturns(body) {
		return p.errorf(KindMissingReturn, p.cur().Pos(),
			"not all code paths of %s return a value", sig)
	}
	b.fn.SetBody(body)
	return nil
}

// checkRequired verifies the host-required signatures.
func (p *Parser) checkRequired(required []types.FunctionSignature) error {
	eof := p.toks[len(p.toks)-1].Pos()
	for _, req := range required {
		candidates := p.ctx.overloads(req.Identifier)
		if len(candidates) == 0 {
			return p.errorf(KindMissingFunction, eof,
				"required function %s is not defined", req)
		}
		found := false
		for _, fn := range candidates {
			if fn.Signature.Satisfies(req) {
				found = true
				break
			}
		}
		if !found {
			return p.errorf(KindSignatureMismatch, candidates[0].Position,
				"required function %s does not match: expected %s, found %s",
				req.Identifier, req, candidates[0].Signature)
		}
	}
	return nil
}

// ParseSignature parses a signature such as "int Step(bool correct)".
// Parameter names are optional.
func ParseSignature(text string, registry *interop.Registry) (types.FunctionSignature, error) {
	toks, err := lexer.New(text).Tokenize()
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return types.FunctionSignature{}, wrapLexError(le, text)
		}
		return types.FunctionSignature{}, err
	}
	p := newParser(text, toks, registry)
	ret, _, err := p.parseType()
	if err != nil {
		return types.FunctionSignature{}, err
	}
	name, err := p.expect(lexer.TOKEN_IDENT, "a function name")
	if err != nil {
		return types.FunctionSignature{}, err
	}
	args, err := p.parseParameters(false)
	if err != nil {
		return types.FunctionSignature{}, err
	}
	if err := p.expectEnd(); err != nil {
		return types.FunctionSignature{}, err
	}
	return types.NewFunctionSignature(name.Literal, ret, args...), nil
}

// parseType reads a type name followed by any number of [] suffixes.
func (p *Parser) parseType() (types.Type, lexer.Token, error) {
	tok := p.cur()
	var t types.Type
	switch {
	case tok.Type.IsTypeKeyword():
		t, _ = types.Primitive(tok.Literal)
	case tok.Type == lexer.TOKEN_IDENT:
		ht, err := p.registry.LookupType(tok.Literal)
		if err != nil {
			return types.Type{}, tok, p.errorf(KindUndeclaredIdentifier, tok.Pos(), "unknown type %s", tok.Literal)
		}
		t = ht
	default:
		return types.Type{}, tok, p.errorf(KindSyntax, tok.Pos(), "expected a type, found %s", describe(tok))
	}
	p.advance()
	for p.at(lexer.TOKEN_LBRACKET) && p.peek(1).Type == lexer.TOKEN_RBRACKET {
		if t.IsVoid() {
			return types.Type{}, tok, p.errorf(KindVoidDeclaration, tok.Pos(), "void cannot be an array element type")
		}
		p.advance()
		p.advance()
		t = types.ArrayOf(t)
	}
	return t, tok, nil
}

// parseParameters reads a parenthesized formal parameter list.
func (p *Parser) parseParameters(requireNames bool) ([]types.ArgumentData, error) {
	if _, err := p.expect(lexer.TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	var args []types.ArgumentData
	seen := make(map[string]bool)
	for !p.at(lexer.TOKEN_RPAREN) {
		if len(args) > 0 {
			if _, err := p.expect(lexer.TOKEN_COMMA, ", or )"); err != nil {
				return nil, err
			}
		}
		modeTok := p.cur()
		mode := types.Standard
		if modeTok.Type.IsArgumentMode() {
			mode = argumentMode(modeTok.Type)
			p.advance()
		}
		typ, typTok, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if typ.IsVoid() {
			return nil, p.errorf(KindVoidDeclaration, typTok.Pos(), "parameter cannot be void")
		}
		a := types.ArgumentData{Type: typ, Mode: mode}
		if p.at(lexer.TOKEN_IDENT) {
			a.Identifier = p.advance().Literal
		} else if requireNames {
			return nil, p.errorf(KindSyntax, p.cur().Pos(), "expected a parameter name, found %s", describe(p.cur()))
		}
		if a.Identifier != "" {
			if seen[a.Identifier] {
				return nil, p.errorf(KindDuplicateDeclaration, typTok.Pos(),
					"parameter %s is already declared", a.Identifier)
			}
			seen[a.Identifier] = true
		}
		args = append(args, a)
	}
	p.advance()

	for i, a := range args {
		if a.Mode == types.Params && (i != len(args)-1 || !a.Type.IsArray()) {
			return nil, p.errorf(KindInvalidArgumentMode, p.cur().Pos(),
				"params parameter %s must be the last parameter and an array", a.Identifier)
		}
	}
	return args, nil
}

func argumentMode(t lexer.TokenType) types.ArgumentMode {
	switch t {
	case lexer.TOKEN_IN:
		return types.In
	case lexer.TOKEN_REF:
		return types.Ref
	case lexer.TOKEN_OUT:
		return types.Out
	case lexer.TOKEN_PARAMS:
		return types.Params
	}
	return types.Standard
}

// isTypeStart reports whether the current token begins a type in a
// declaration position.
func (p *Parser) isTypeStart() bool {
	tok := p.cur()
	if tok.Type.IsTypeKeyword() {
		return true
	}
	if tok.Type != lexer.TOKEN_IDENT || !p.registry.HasType(tok.Literal) {
		return false
	}
	next := p.peek(1)
	return next.Type == lexer.TOKEN_IDENT ||
		(next.Type == lexer.TOKEN_LBRACKET && p.peek(2).Type == lexer.TOKEN_RBRACKET)
}

// Token cursor.

func (p *Parser) cur() lexer.Token { return p.peek(0) }

func (p *Parser) peek(n int) lexer.Token {
	i := p.pos + n
	if i < p.end && i < len(p.toks) {
		return p.toks[i]
	}
	last := p.toks[min(p.end, len(p.toks)-1)]
	return lexer.Token{Type: lexer.TOKEN_EOF, Line: last.Line, Column: last.Column}
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if p.pos < p.end {
		p.pos++
	}
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *Parser) expect(t lexer.TokenType, what string) (lexer.Token, error) {
	tok := p.cur()
	if tok.Type != t {
		return tok, p.errorf(KindSyntax, tok.Pos(), "expected %s, found %s", what, describe(tok))
	}
	p.advance()
	return tok, nil
}

func (p *Parser) expectEnd() error {
	if !p.at(lexer.TOKEN_EOF) {
		return p.errorf(KindSyntax, p.cur().Pos(), "unexpected %s", describe(p.cur()))
	}
	return nil
}

// span narrows the cursor to toks[start:end] and returns a function that
// restores the previous cursor.
func (p *Parser) span(start, end int) func() {
	pos, prevEnd := p.pos, p.end
	p.pos, p.end = start, end
	return func() { p.pos, p.end = pos, prevEnd }
}

// skipTo advances to the next token of type t outside any brackets and
// returns its index without consuming it.
func (p *Parser) skipTo(t lexer.TokenType) (int, error) {
	depth := 0
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TOKEN_EOF:
			return 0, p.errorf(KindSyntax, tok.Pos(), "expected %s, found end of input", t)
		case lexer.TOKEN_LPAREN, lexer.TOKEN_LBRACE, lexer.TOKEN_LBRACKET:
			depth++
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACE, lexer.TOKEN_RBRACKET:
			depth--
			if depth < 0 {
				return 0, p.errorf(KindSyntax, tok.Pos(), "unbalanced %s", tok.Literal)
			}
		default:
			if tok.Type == t && depth == 0 {
				return p.pos, nil
			}
		}
		p.advance()
	}
}

// skipBlock consumes a brace-delimited block, checking that (), {} and []
// nest properly, and returns the index of the closing brace.
func (p *Parser) skipBlock() (int, error) {
	var stack []lexer.TokenType
	for {
		tok := p.cur()
		switch tok.Type {
		case lexer.TOKEN_EOF:
			return 0, p.errorf(KindSyntax, tok.Pos(), "unterminated block, expected }")
		case lexer.TOKEN_LPAREN:
			stack = append(stack, lexer.TOKEN_RPAREN)
		case lexer.TOKEN_LBRACE:
			stack = append(stack, lexer.TOKEN_RBRACE)
		case lexer.TOKEN_LBRACKET:
			stack = append(stack, lexer.TOKEN_RBRACKET)
		case lexer.TOKEN_RPAREN, lexer.TOKEN_RBRACE, lexer.TOKEN_RBRACKET:
			if len(stack) == 0 || stack[len(stack)-1] != tok.Type {
				return 0, p.errorf(KindSyntax, tok.Pos(), "unbalanced %s", tok.Literal)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				p.advance()
				return p.pos - 1, nil
			}
		}
		p.advance()
	}
}

func (p *Parser) errorf(kind ErrorKind, pos lexer.Position, format string, args ...any) *ParsingError {
	return newError(kind, pos, p.source, format, args...)
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TOKEN_EOF:
		return "end of input"
	case lexer.TOKEN_IDENT:
		return fmt.Sprintf("identifier %s", tok.Literal)
	case lexer.TOKEN_INT, lexer.TOKEN_DOUBLE:
		return fmt.Sprintf("number %s", tok.Literal)
	case lexer.TOKEN_STRING:
		return fmt.Sprintf("string %q", tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Type.String())
}
