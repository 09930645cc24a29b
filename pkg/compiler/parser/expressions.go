package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Precedence levels for operators.
const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= *= /= %=
	TERNARY     // ?:
	OR          // ||
	AND         // &&
	EQUALS      // == !=
	LESSGREATER // > or <
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X or !X
	POSTFIX     // x++ a[i] a.b
)

var precedences = map[lexer.TokenType]int{
	lexer.TOKEN_ASSIGN:       ASSIGN,
	lexer.TOKEN_PLUS_ASSIGN:  ASSIGN,
	lexer.TOKEN_MINUS_ASSIGN: ASSIGN,
	lexer.TOKEN_MUL_ASSIGN:   ASSIGN,
	lexer.TOKEN_DIV_ASSIGN:   ASSIGN,
	lexer.TOKEN_MOD_ASSIGN:   ASSIGN,
	lexer.TOKEN_QUESTION:     TERNARY,
	lexer.TOKEN_OR:           OR,
	lexer.TOKEN_AND:          AND,
	lexer.TOKEN_EQ:           EQUALS,
	lexer.TOKEN_NEQ:          EQUALS,
	lexer.TOKEN_LT:           LESSGREATER,
	lexer.TOKEN_LTE:          LESSGREATER,
	lexer.TOKEN_GT:           LESSGREATER,
	lexer.TOKEN_GTE:          LESSGREATER,
	lexer.TOKEN_PLUS:         SUM,
	lexer.TOKEN_MINUS:        SUM,
	lexer.TOKEN_ASTERISK:     PRODUCT,
	lexer.TOKEN_SLASH:        PRODUCT,
	lexer.TOKEN_PERCENT:      PRODUCT,
	lexer.TOKEN_INCREMENT:    POSTFIX,
	lexer.TOKEN_DECREMENT:    POSTFIX,
	lexer.TOKEN_LBRACKET:     POSTFIX,
	lexer.TOKEN_DOT:          POSTFIX,
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TOKEN_PLUS:     ast.OpAdd,
	lexer.TOKEN_MINUS:    ast.OpSubtract,
	lexer.TOKEN_ASTERISK: ast.OpMultiply,
	lexer.TOKEN_SLASH:    ast.OpDivide,
	lexer.TOKEN_PERCENT:  ast.OpModulo,
	lexer.TOKEN_EQ:       ast.OpEqual,
	lexer.TOKEN_NEQ:      ast.OpNotEqual,
	lexer.TOKEN_LT:       ast.OpLess,
	lexer.TOKEN_GT:       ast.OpGreater,
	lexer.TOKEN_LTE:      ast.OpLessEqual,
	lexer.TOKEN_GTE:      ast.OpGreaterEqual,
}

var compoundOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TOKEN_PLUS_ASSIGN:  ast.OpAdd,
	lexer.TOKEN_MINUS_ASSIGN: ast.OpSubtract,
	lexer.TOKEN_MUL_ASSIGN:   ast.OpMultiply,
	lexer.TOKEN_DIV_ASSIGN:   ast.OpDivide,
	lexer.TOKEN_MOD_ASSIGN:   ast.OpModulo,
}

func (p *Parser) registerParseFns() {
	p.prefixParseFns = map[lexer.TokenType]prefixParseFn{
		lexer.TOKEN_IDENT:     p.parseIdentifier,
		lexer.TOKEN_INT:       p.parseIntegerLiteral,
		lexer.TOKEN_DOUBLE:    p.parseDoubleLiteral,
		lexer.TOKEN_STRING:    p.parseStringLiteral,
		lexer.TOKEN_TRUE:      p.parseBooleanLiteral,
		lexer.TOKEN_FALSE:     p.parseBooleanLiteral,
		lexer.TOKEN_MINUS:     p.parsePrefixExpression,
		lexer.TOKEN_NOT:       p.parsePrefixExpression,
		lexer.TOKEN_INCREMENT: p.parsePrefixIncDec,
		lexer.TOKEN_DECREMENT: p.parsePrefixIncDec,
		lexer.TOKEN_LPAREN:    p.parseGroupedOrCast,
		lexer.TOKEN_NEW:       p.parseNewArray,
	}
	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for t := range binaryOps {
		p.infixParseFns[t] = p.parseInfixExpression
	}
	for t := range compoundOps {
		p.infixParseFns[t] = p.parseAssignment
	}
	p.infixParseFns[lexer.TOKEN_ASSIGN] = p.parseAssignment
	p.infixParseFns[lexer.TOKEN_AND] = p.parseLogical
	p.infixParseFns[lexer.TOKEN_OR] = p.parseLogical
	p.infixParseFns[lexer.TOKEN_QUESTION] = p.parseConditional
	p.infixParseFns[lexer.TOKEN_LBRACKET] = p.parseIndexExpression
	p.infixParseFns[lexer.TOKEN_DOT] = p.parseMemberAccess
	p.infixParseFns[lexer.TOKEN_INCREMENT] = p.parsePostfixIncDec
	p.infixParseFns[lexer.TOKEN_DECREMENT] = p.parsePostfixIncDec
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur().Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	prefix := p.prefixParseFns[p.cur().Type]
	if prefix == nil {
		return nil, p.errorf(KindSyntax, p.cur().Pos(), "expected an expression, found %s", describe(p.cur()))
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}
	for precedence < p.curPrecedence() {
		infix := p.infixParseFns[p.cur().Type]
		if infix == nil {
			return left, nil
		}
		if left, err = infix(left); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseIntegerLiteral() (ast.Expression, error) {
	tok := p.advance()
	var n int64
	var err error
	if lit := strings.ToLower(tok.Literal); strings.HasPrefix(lit, "0x") {
		n, err = strconv.ParseInt(lit[2:], 16, 64)
	} else {
		n, err = strconv.ParseInt(lit, 10, 64)
	}
	if err != nil {
		return nil, p.errorf(KindSyntax, tok.Pos(), "could not parse %q as integer", tok.Literal)
	}
	return &ast.Literal{Position: tok.Pos(), Value: types.IntValue(n)}, nil
}

func (p *Parser) parseDoubleLiteral() (ast.Expression, error) {
	tok := p.advance()
	d, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		return nil, p.errorf(KindSyntax, tok.Pos(), "could not parse %q as double", tok.Literal)
	}
	return &ast.Literal{Position: tok.Pos(), Value: types.DoubleValue(d)}, nil
}

func (p *Parser) parseStringLiteral() (ast.Expression, error) {
	tok := p.advance()
	return &ast.Literal{Position: tok.Pos(), Value: types.StringValue(tok.Literal)}, nil
}

func (p *Parser) parseBooleanLiteral() (ast.Expression, error) {
	tok := p.advance()
	return &ast.Literal{Position: tok.Pos(), Value: types.BoolValue(tok.Type == lexer.TOKEN_TRUE)}, nil
}

// parseIdentifier resolves a name as a call, a variable, a constant or the
// start of a static member access.
func (p *Parser) parseIdentifier() (ast.Expression, error) {
	tok := p.advance()
	name := tok.Literal
	if p.at(lexer.TOKEN_LPAREN) {
		return p.parseCall(tok)
	}
	if sym, ok := p.ctx.lookup(name); ok {
		if sym.constant != nil {
			lit := &ast.Literal{Position: tok.Pos(), Value: sym.constant.Value}
			p.readOnly[lit] = name
			return lit, nil
		}
		ref := &ast.VariableRef{Position: tok.Pos(), Name: name, VarType: sym.typ}
		if sym.readOnly {
			p.readOnly[ref] = name
		}
		return ref, nil
	}
	if p.registry.HasType(name) {
		if !p.at(lexer.TOKEN_DOT) {
			return nil, p.errorf(KindSyntax, tok.Pos(), "type %s cannot be used as a value", name)
		}
		return p.parseStaticMember(tok)
	}
	return nil, p.errorf(KindUndeclaredIdentifier, tok.Pos(), "undeclared identifier %s", name)
}

// parsedArgs holds the actual arguments of a call before overload resolution.
type parsedArgs struct {
	args    []ast.Argument
	actuals []types.ActualArgument
}

func (p *Parser) parseArguments() (parsedArgs, error) {
	var out parsedArgs
	if _, err := p.expect(lexer.TOKEN_LPAREN, "("); err != nil {
		return out, err
	}
	for !p.at(lexer.TOKEN_RPAREN) {
		if len(out.args) > 0 {
			if _, err := p.expect(lexer.TOKEN_COMMA, ", or )"); err != nil {
				return out, err
			}
		}
		modeTok := p.cur()
		mode := types.Standard
		switch modeTok.Type {
		case lexer.TOKEN_REF, lexer.TOKEN_OUT, lexer.TOKEN_IN:
			mode = argumentMode(modeTok.Type)
			p.advance()
		case lexer.TOKEN_PARAMS:
			return out, p.errorf(KindInvalidArgumentMode, modeTok.Pos(), "params cannot be used at a call site")
		}
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return out, err
		}
		if mode == types.Ref || mode == types.Out {
			if name, ok := p.readOnly[expr]; ok {
				return out, p.errorf(KindReadOnlyAssignment, expr.Pos(),
					"%s is read-only and cannot be passed as %s", name, mode)
			}
			if _, ok := expr.(ast.Assignable); !ok {
				return out, p.errorf(KindInvalidArgumentMode, expr.Pos(),
					"%s argument must be a variable, element or settable property", mode)
			}
		}
		out.args = append(out.args, ast.Argument{Expr: expr, Mode: mode})
		out.actuals = append(out.actuals, types.ActualArgument{Type: expr.Type(), Mode: mode})
	}
	p.advance()
	return out, nil
}

func formatActuals(actuals []types.ActualArgument) string {
	ts := make([]types.Type, len(actuals))
	for i, a := range actuals {
		ts[i] = a.Type
	}
	return types.FormatTypes(ts)
}

// bindArguments fills in each argument's target type for the chosen
// overload.
func bindArguments(args []ast.Argument, sig types.FunctionSignature, m types.Match) {
	for i := range args {
		args[i].To = types.ParameterTypeAt(sig, i, m.Expanded)
	}
}

// parseCall resolves name(args) against script functions first and then
// against host free functions.
func (p *Parser) parseCall(nameTok lexer.Token) (ast.Expression, error) {
	name := nameTok.Literal
	pa, err := p.parseArguments()
	if err != nil {
		return nil, err
	}

	candidates := p.ctx.overloads(name)
	if len(candidates) > 0 {
		sigs := make([]types.FunctionSignature, len(candidates))
		for i, fn := range candidates {
			sigs[i] = fn.Signature
		}
		m, err := types.Resolve(sigs, pa.actuals)
		switch {
		case err == nil:
			bindArguments(pa.args, sigs[m.Index], m)
			return &ast.FunctionCall{
				Position: nameTok.Pos(),
				Function: candidates[m.Index],
				Args:     pa.args,
				Expanded: m.Expanded,
			}, nil
		case errors.Is(err, types.ErrAmbiguous):
			return nil, p.errorf(KindAmbiguousCall, nameTok.Pos(),
				"call %s%s is ambiguous", name, formatActuals(pa.actuals))
		}
	}

	if p.registry.HasMethod("", true, name) {
		return p.hostCall(nameTok, nil, "", true, name, pa)
	}
	if len(candidates) > 0 {
		return nil, p.errorf(KindFunctionNotFound, nameTok.Pos(),
			"no overload of %s accepts %s", name, formatActuals(pa.actuals))
	}
	return nil, p.errorf(KindFunctionNotFound, nameTok.Pos(), "function %s is not declared", name)
}

func (p *Parser) hostCall(tok lexer.Token, recv ast.Expression, receiver string, static bool, name string, pa parsedArgs) (ast.Expression, error) {
	for _, a := range pa.actuals {
		if a.Mode == types.Ref || a.Mode == types.Out {
			return nil, p.errorf(KindInvalidArgumentMode, tok.Pos(),
				"host member %s does not accept %s arguments", qualified(receiver, name), a.Mode)
		}
	}
	res, err := p.registry.ResolveMethod(receiver, static, name, pa.actuals)
	switch {
	case errors.Is(err, interop.ErrUnknownMember):
		return nil, p.errorf(KindUnknownMember, tok.Pos(), "type %s has no member %s", receiver, name)
	case errors.Is(err, types.ErrAmbiguous):
		return nil, p.errorf(KindAmbiguousCall, tok.Pos(),
			"call %s%s is ambiguous", qualified(receiver, name), formatActuals(pa.actuals))
	case err != nil:
		return nil, p.errorf(KindFunctionNotFound, tok.Pos(),
			"no overload of %s accepts %s", qualified(receiver, name), formatActuals(pa.actuals))
	}
	bindArguments(pa.args, res.Adapter.Signature(name), res.Match)
	return &ast.HostCall{
		Position: tok.Pos(),
		Receiver: recv,
		Member:   qualified(receiver, name),
		Adapter:  res.Adapter,
		Args:     pa.args,
		Expanded: res.Match.Expanded,
	}, nil
}

func qualified(receiver, name string) string {
	if receiver == "" {
		return name
	}
	return receiver + "." + name
}

// parseStaticMember parses Type.Member or Type.Member(args).
func (p *Parser) parseStaticMember(typeTok lexer.Token) (ast.Expression, error) {
	p.advance()
	nameTok, err := p.expect(lexer.TOKEN_IDENT, "a member name")
	if err != nil {
		return nil, err
	}
	typeName, name := typeTok.Literal, nameTok.Literal
	if p.at(lexer.TOKEN_LPAREN) {
		if !p.registry.HasMethod(typeName, true, name) {
			return nil, p.errorf(KindUnknownMember, nameTok.Pos(), "type %s has no static member %s", typeName, name)
		}
		pa, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return p.hostCall(nameTok, nil, typeName, true, name, pa)
	}
	prop, err := p.registry.LookupProperty(typeName, true, name)
	if err != nil {
		return nil, p.errorf(KindUnknownMember, nameTok.Pos(), "type %s has no static member %s", typeName, name)
	}
	return &ast.PropertyAccess{Position: nameTok.Pos(), Member: qualified(typeName, name), Property: prop}, nil
}

// parseMemberAccess parses x.Member or x.Member(args) on a value.
func (p *Parser) parseMemberAccess(left ast.Expression) (ast.Expression, error) {
	p.advance()
	nameTok, err := p.expect(lexer.TOKEN_IDENT, "a member name")
	if err != nil {
		return nil, err
	}
	t := left.Type()
	name := nameTok.Literal
	if t.IsVoid() {
		return nil, p.errorf(KindTypeMismatch, nameTok.Pos(), "void value has no member %s", name)
	}
	if name == "Length" && !p.at(lexer.TOKEN_LPAREN) && (t.IsArray() || t.Kind() == types.KindString) {
		return &ast.LengthExpression{Position: nameTok.Pos(), Operand: left}, nil
	}
	receiver := t.String()
	if p.at(lexer.TOKEN_LPAREN) {
		if !p.registry.HasMethod(receiver, false, name) {
			return nil, p.errorf(KindUnknownMember, nameTok.Pos(), "type %s has no member %s", receiver, name)
		}
		pa, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return p.hostCall(nameTok, left, receiver, false, name, pa)
	}
	prop, err := p.registry.LookupProperty(receiver, false, name)
	if err != nil {
		return nil, p.errorf(KindUnknownMember, nameTok.Pos(), "type %s has no member %s", receiver, name)
	}
	return &ast.PropertyAccess{Position: nameTok.Pos(), Receiver: left, Member: qualified(receiver, name), Property: prop}, nil
}

func (p *Parser) parsePrefixExpression() (ast.Expression, error) {
	tok := p.advance()
	operand, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	if tok.Type == lexer.TOKEN_NOT {
		if operand.Type().Kind() != types.KindBool {
			return nil, p.errorf(KindTypeMismatch, tok.Pos(), "operator ! requires bool, found %s", operand.Type())
		}
		return ast.Fold(&ast.UnaryExpression{Position: tok.Pos(), Op: ast.OpNot, Operand: operand}), nil
	}
	if !operand.Type().IsNumeric() {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(), "operator - requires a number, found %s", operand.Type())
	}
	return ast.Fold(&ast.UnaryExpression{Position: tok.Pos(), Op: ast.OpNegate, Operand: operand}), nil
}

func (p *Parser) checkWritable(target ast.Expression, pos lexer.Position, what string) (ast.Assignable, error) {
	if name, ok := p.readOnly[target]; ok {
		return nil, p.errorf(KindReadOnlyAssignment, pos, "cannot %s read-only %s", what, name)
	}
	a, ok := target.(ast.Assignable)
	if !ok {
		return nil, p.errorf(KindSyntax, pos, "cannot %s a value that is not a variable, element or property", what)
	}
	if pa, ok := a.(*ast.PropertyAccess); ok && pa.Property.Set == nil {
		return nil, p.errorf(KindReadOnlyAssignment, pos, "cannot %s read-only property %s", what, pa.Member)
	}
	return a, nil
}

func (p *Parser) parsePrefixIncDec() (ast.Expression, error) {
	tok := p.advance()
	operand, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return p.incDec(tok, operand, true)
}

func (p *Parser) parsePostfixIncDec(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	return p.incDec(tok, left, false)
}

func (p *Parser) incDec(tok lexer.Token, operand ast.Expression, prefix bool) (ast.Expression, error) {
	target, err := p.checkWritable(operand, tok.Pos(), tok.Literal)
	if err != nil {
		return nil, err
	}
	if !target.Type().IsNumeric() {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(), "operator %s requires a number, found %s", tok.Literal, target.Type())
	}
	return &ast.IncDec{
		Position:  tok.Pos(),
		Target:    target,
		Decrement: tok.Type == lexer.TOKEN_DECREMENT,
		Prefix:    prefix,
	}, nil
}

// parseGroupedOrCast parses (expr) or a cast such as (int)expr.
func (p *Parser) parseGroupedOrCast() (ast.Expression, error) {
	open := p.advance()
	if next := p.cur(); next.Type.IsTypeKeyword() && next.Type != lexer.TOKEN_VOID && p.peek(1).Type == lexer.TOKEN_RPAREN {
		to, _ := types.Primitive(next.Literal)
		p.advance()
		p.advance()
		operand, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		if operand.Type().Equal(to) {
			return operand, nil
		}
		if !types.LooselyMatches(operand.Type(), to) {
			return nil, p.errorf(KindTypeMismatch, open.Pos(), "cannot convert %s to %s", operand.Type(), to)
		}
		return ast.Fold(&ast.ConversionExpression{Position: open.Pos(), Operand: operand, To: to}), nil
	}
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseNewArray parses new T[n] and new T[] { a, b }.
func (p *Parser) parseNewArray() (ast.Expression, error) {
	newTok := p.advance()
	elem, typTok, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if elem.IsVoid() {
		return nil, p.errorf(KindVoidDeclaration, typTok.Pos(), "void cannot be an array element type")
	}
	if elem.IsArray() && p.at(lexer.TOKEN_LBRACE) {
		return p.parseArrayLiteral(newTok, elem.Elem())
	}
	if _, err := p.expect(lexer.TOKEN_LBRACKET, "["); err != nil {
		return nil, err
	}
	size, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if size.Type().Kind() != types.KindInt {
		return nil, p.errorf(KindTypeMismatch, size.Pos(), "array size must be int, found %s", size.Type())
	}
	if _, err := p.expect(lexer.TOKEN_RBRACKET, "]"); err != nil {
		return nil, err
	}
	for p.at(lexer.TOKEN_LBRACKET) && p.peek(1).Type == lexer.TOKEN_RBRACKET {
		p.advance()
		p.advance()
		elem = types.ArrayOf(elem)
	}
	return &ast.NewArrayExpression{Position: newTok.Pos(), Elem: elem, Size: size}, nil
}

func (p *Parser) parseArrayLiteral(newTok lexer.Token, elem types.Type) (ast.Expression, error) {
	p.advance()
	lit := &ast.ArrayLiteral{Position: newTok.Pos(), Elem: elem}
	for !p.at(lexer.TOKEN_RBRACE) {
		if len(lit.Items) > 0 {
			if _, err := p.expect(lexer.TOKEN_COMMA, ", or }"); err != nil {
				return nil, err
			}
			if p.at(lexer.TOKEN_RBRACE) {
				break
			}
		}
		item, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if !types.Assignable(item.Type(), elem) {
			return nil, p.errorf(KindTypeMismatch, item.Pos(), "cannot use %s as an element of %s[]", item.Type(), elem)
		}
		lit.Items = append(lit.Items, item)
	}
	p.advance()
	return lit, nil
}

func (p *Parser) parseInfixExpression(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	right, err := p.parseExpression(precedences[tok.Type])
	if err != nil {
		return nil, err
	}
	result, op, ok := ast.BinaryResultType(binaryOps[tok.Type], left.Type(), right.Type())
	if !ok {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(),
			"operator %s is not defined for %s and %s", tok.Literal, left.Type(), right.Type())
	}
	return ast.Fold(&ast.BinaryExpression{
		Position:   tok.Pos(),
		Op:         op,
		Left:       left,
		Right:      right,
		ResultType: result,
	}), nil
}

func (p *Parser) parseLogical(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	right, err := p.parseExpression(precedences[tok.Type])
	if err != nil {
		return nil, err
	}
	if left.Type().Kind() != types.KindBool || right.Type().Kind() != types.KindBool {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(),
			"operator %s requires bool operands, found %s and %s", tok.Literal, left.Type(), right.Type())
	}
	return ast.Fold(&ast.LogicalExpression{
		Position: tok.Pos(),
		Or:       tok.Type == lexer.TOKEN_OR,
		Left:     left,
		Right:    right,
	}), nil
}

func (p *Parser) parseConditional(cond ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	if cond.Type().Kind() != types.KindBool {
		return nil, p.errorf(KindTypeMismatch, cond.Pos(), "condition must be bool, found %s", cond.Type())
	}
	then, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TOKEN_COLON, ":"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseExpression(ASSIGN)
	if err != nil {
		return nil, err
	}
	var result types.Type
	switch {
	case then.Type().Equal(otherwise.Type()):
		result = then.Type()
	case types.Assignable(then.Type(), otherwise.Type()):
		result = otherwise.Type()
	case types.Assignable(otherwise.Type(), then.Type()):
		result = then.Type()
	default:
		return nil, p.errorf(KindTypeMismatch, tok.Pos(),
			"branches of ?: have incompatible types %s and %s", then.Type(), otherwise.Type())
	}
	if result.IsVoid() {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(), "branches of ?: cannot be void")
	}
	return ast.Fold(&ast.ConditionalExpression{
		Position:   tok.Pos(),
		Cond:       cond,
		Then:       then,
		Else:       otherwise,
		ResultType: result,
	}), nil
}

func (p *Parser) parseIndexExpression(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	if !left.Type().IsArray() {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(), "cannot index a value of type %s", left.Type())
	}
	index, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if index.Type().Kind() != types.KindInt {
		return nil, p.errorf(KindTypeMismatch, index.Pos(), "array index must be int, found %s", index.Type())
	}
	if _, err := p.expect(lexer.TOKEN_RBRACKET, "]"); err != nil {
		return nil, err
	}
	return &ast.IndexExpression{Position: tok.Pos(), Array: left, Index: index}, nil
}

func (p *Parser) parseAssignment(left ast.Expression) (ast.Expression, error) {
	tok := p.advance()
	target, err := p.checkWritable(left, tok.Pos(), "assign to")
	if err != nil {
		return nil, err
	}
	value, err := p.parseExpression(ASSIGN - 1)
	if err != nil {
		return nil, err
	}
	assign := &ast.Assignment{Position: tok.Pos(), Target: target, Value: value}
	if tok.Type == lexer.TOKEN_ASSIGN {
		if !types.Assignable(value.Type(), target.Type()) {
			return nil, p.errorf(KindTypeMismatch, tok.Pos(),
				"cannot assign %s to %s", value.Type(), target.Type())
		}
		return assign, nil
	}
	result, op, ok := ast.BinaryResultType(compoundOps[tok.Type], target.Type(), value.Type())
	if !ok || !types.Assignable(result, target.Type()) {
		return nil, p.errorf(KindTypeMismatch, tok.Pos(),
			"operator %s is not defined for %s and %s", tok.Literal, target.Type(), value.Type())
	}
	assign.Compound = true
	assign.Op = op
	return assign, nil
}
