package parser

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// parseStatement parses one statement of a function body. It returns a nil
// statement for an empty ;.
func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case lexer.TOKEN_SEMICOLON:
		p.advance()
		return nil, nil
	case lexer.TOKEN_LBRACE:
		return p.parseBlock()
	case lexer.TOKEN_IF:
		return p.parseIf()
	case lexer.TOKEN_WHILE:
		return p.parseWhile()
	case lexer.TOKEN_DO:
		return p.parseDoWhile()
	case lexer.TOKEN_FOR:
		return p.parseFor()
	case lexer.TOKEN_FOREACH:
		return p.parseForEach()
	case lexer.TOKEN_BREAK, lexer.TOKEN_CONTINUE:
		return p.parseLoopJump()
	case lexer.TOKEN_RETURN:
		return p.parseReturn()
	case lexer.TOKEN_GLOBAL, lexer.TOKEN_EXTERN, lexer.TOKEN_CONST:
		return nil, p.errorf(KindSyntax, p.cur().Pos(),
			"%s declarations are only allowed at script level", p.cur().Literal)
	}
	if p.isTypeStart() {
		decl, err := p.parseLocalDeclaration()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
			return nil, err
		}
		return decl, nil
	}
	stmt, err := p.parseExpressionStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseEmbedded parses the body of an if or a loop. A declaration there
// would be scoped to nothing and is rejected.
func (p *Parser) parseEmbedded() (ast.Statement, error) {
	if p.isTypeStart() {
		return nil, p.errorf(KindSyntax, p.cur().Pos(),
			"a declaration cannot be used as an embedded statement")
	}
	pos := p.cur().Pos()
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return &ast.Block{Position: pos}, nil
	}
	return stmt, nil
}

func (p *Parser) parseBlock() (ast.Statement, error) {
	open := p.advance()
	p.ctx.pushScope()
	defer p.ctx.popScope()
	block := &ast.Block{Position: open.Pos()}
	for !p.at(lexer.TOKEN_RBRACE) {
		if p.at(lexer.TOKEN_EOF) {
			return nil, p.errorf(KindSyntax, p.cur().Pos(), "expected }, found end of input")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	p.advance()
	return block, nil
}

// parseLocalDeclaration parses "T a = x, b;" without the trailing ;. Each
// name becomes visible after its own initializer.
func (p *Parser) parseLocalDeclaration() (*ast.LocalDeclaration, error) {
	typ, typTok, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if typ.IsVoid() {
		return nil, p.errorf(KindVoidDeclaration, typTok.Pos(), "variable cannot be declared void")
	}
	decl := &ast.LocalDeclaration{Position: typTok.Pos(), VarType: typ}
	for {
		name, err := p.expect(lexer.TOKEN_IDENT, "an identifier")
		if err != nil {
			return nil, err
		}
		var init ast.Expression
		if p.at(lexer.TOKEN_ASSIGN) {
			p.advance()
			if init, err = p.parseExpression(LOWEST); err != nil {
				return nil, err
			}
			if !types.Assignable(init.Type(), typ) {
				return nil, p.errorf(KindTypeMismatch, init.Pos(),
					"cannot initialize %s %s with a value of type %s", typ, name.Literal, init.Type())
			}
		}
		if !p.ctx.declareLocal(&symbol{name: name.Literal, typ: typ, kind: symbolLocal, pos: name.Pos()}) {
			return nil, p.errorf(KindDuplicateDeclaration, name.Pos(),
				"%s is already declared in this scope", name.Literal)
		}
		decl.Names = append(decl.Names, name.Literal)
		decl.Inits = append(decl.Inits, init)
		if !p.at(lexer.TOKEN_COMMA) {
			return decl, nil
		}
		p.advance()
	}
}

// parseExpressionStatement accepts only expressions with an effect.
func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	switch expr.(type) {
	case *ast.Assignment, *ast.IncDec, *ast.FunctionCall, *ast.HostCall:
	default:
		return nil, p.errorf(KindSyntax, expr.Pos(),
			"only assignment, increment, decrement and call expressions can be used as a statement")
	}
	return &ast.ExpressionStatement{Position: expr.Pos(), Expr: expr}, nil
}

func (p *Parser) parseCondition() (ast.Expression, error) {
	if _, err := p.expect(lexer.TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if cond.Type().Kind() != types.KindBool {
		return nil, p.errorf(KindTypeMismatch, cond.Pos(), "condition must be bool, found %s", cond.Type())
	}
	if _, err := p.expect(lexer.TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	tok := p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseEmbedded()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Position: tok.Pos(), Cond: cond, Then: then}
	if p.at(lexer.TOKEN_ELSE) {
		p.advance()
		if stmt.Otherwise, err = p.parseEmbedded(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// loopBody parses a loop body with break and continue enabled.
func (p *Parser) loopBody() (ast.Statement, error) {
	p.ctx.loopDepth++
	defer func() { p.ctx.loopDepth-- }()
	return p.parseEmbedded()
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	tok := p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.loopBody()
	if err != nil {
		return nil, err
	}
	return &ast.While{Position: tok.Pos(), Cond: cond, Body: body}, nil
}

func (p *Parser) parseDoWhile() (ast.Statement, error) {
	tok := p.advance()
	body, err := p.loopBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TOKEN_WHILE, "while"); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
		return nil, err
	}
	return &ast.DoWhile{Position: tok.Pos(), Body: body, Cond: cond}, nil
}

// parseFor parses for (init; cond; post) body. The init clause is either
// a local declaration or a comma-separated list of expression statements.
func (p *Parser) parseFor() (ast.Statement, error) {
	tok := p.advance()
	if _, err := p.expect(lexer.TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	p.ctx.pushScope()
	defer p.ctx.popScope()

	stmt := &ast.For{Position: tok.Pos()}
	if p.isTypeStart() {
		decl, err := p.parseLocalDeclaration()
		if err != nil {
			return nil, err
		}
		stmt.Init = []ast.Statement{decl}
	} else {
		for !p.at(lexer.TOKEN_SEMICOLON) {
			if len(stmt.Init) > 0 {
				if _, err := p.expect(lexer.TOKEN_COMMA, ", or ;"); err != nil {
					return nil, err
				}
			}
			s, err := p.parseExpressionStatement()
			if err != nil {
				return nil, err
			}
			stmt.Init = append(stmt.Init, s)
		}
	}
	if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
		return nil, err
	}

	if !p.at(lexer.TOKEN_SEMICOLON) {
		cond, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if cond.Type().Kind() != types.KindBool {
			return nil, p.errorf(KindTypeMismatch, cond.Pos(), "condition must be bool, found %s", cond.Type())
		}
		stmt.Cond = cond
	}
	if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
		return nil, err
	}

	for !p.at(lexer.TOKEN_RPAREN) {
		if len(stmt.Post) > 0 {
			if _, err := p.expect(lexer.TOKEN_COMMA, ", or )"); err != nil {
				return nil, err
			}
		}
		s, err := p.parseExpressionStatement()
		if err != nil {
			return nil, err
		}
		stmt.Post = append(stmt.Post, s.(*ast.ExpressionStatement).Expr)
	}
	p.advance()

	body, err := p.loopBody()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// parseForEach parses foreach (T x in collection) body. The loop variable
// is read-only.
func (p *Parser) parseForEach() (ast.Statement, error) {
	tok := p.advance()
	if _, err := p.expect(lexer.TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	typ, typTok, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if typ.IsVoid() {
		return nil, p.errorf(KindVoidDeclaration, typTok.Pos(), "loop variable cannot be declared void")
	}
	name, err := p.expect(lexer.TOKEN_IDENT, "an identifier")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TOKEN_IN, "in"); err != nil {
		return nil, err
	}
	coll, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if !coll.Type().IsArray() {
		return nil, p.errorf(KindTypeMismatch, coll.Pos(), "foreach requires an array, found %s", coll.Type())
	}
	if !types.Assignable(coll.Type().Elem(), typ) {
		return nil, p.errorf(KindTypeMismatch, typTok.Pos(),
			"cannot iterate %s with a loop variable of type %s", coll.Type(), typ)
	}
	if _, err := p.expect(lexer.TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}

	p.ctx.pushScope()
	defer p.ctx.popScope()
	p.ctx.declareLocal(&symbol{name: name.Literal, typ: typ, kind: symbolLocal, readOnly: true, pos: name.Pos()})
	body, err := p.loopBody()
	if err != nil {
		return nil, err
	}
	return &ast.ForEach{
		Position:   tok.Pos(),
		VarType:    typ,
		VarName:    name.Literal,
		Collection: coll,
		Body:       body,
	}, nil
}

func (p *Parser) parseLoopJump() (ast.Statement, error) {
	tok := p.advance()
	if p.ctx.loopDepth == 0 {
		return nil, p.errorf(KindSyntax, tok.Pos(), "%s outside of a loop", tok.Literal)
	}
	if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
		return nil, err
	}
	if tok.Type == lexer.TOKEN_BREAK {
		return &ast.Break{Position: tok.Pos()}, nil
	}
	return &ast.Continue{Position: tok.Pos()}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	tok := p.advance()
	sig := p.ctx.function.Signature
	if p.at(lexer.TOKEN_SEMICOLON) {
		p.advance()
		if !sig.ReturnType.IsVoid() {
			return nil, p.errorf(KindTypeMismatch, tok.Pos(), "%s must return a value of type %s", sig.Identifier, sig.ReturnType)
		}
		return &ast.Return{Position: tok.Pos()}, nil
	}
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if sig.ReturnType.IsVoid() {
		return nil, p.errorf(KindTypeMismatch, value.Pos(), "%s returns void and cannot return a value", sig.Identifier)
	}
	if !types.Assignable(value.Type(), sig.ReturnType) {
		return nil, p.errorf(KindTypeMismatch, value.Pos(),
			"%s returns %s, expression has type %s", sig.Identifier, sig.ReturnType, value.Type())
	}
	if _, err := p.expect(lexer.TOKEN_SEMICOLON, ";"); err != nil {
		return nil, err
	}
	return &ast.Return{Position: tok.Pos(), Value: value, To: sig.ReturnType}, nil
}
