package ast

import (
	"unicode/utf8"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Literal is a constant value.
type Literal struct {
	Position lexer.Position
	Value    types.Value
}

func (l *Literal) Pos() lexer.Position { return l.Position }
func (l *Literal) Type() types.Type    { return l.Value.Type() }

func (l *Literal) Evaluate(*runtime.Execution, runtime.Context) (types.Value, error) {
	return l.Value, nil
}

// VariableRef reads a named variable through the context chain.
type VariableRef struct {
	Position lexer.Position
	Name     string
	VarType  types.Type
}

func (v *VariableRef) Pos() lexer.Position { return v.Position }
func (v *VariableRef) Type() types.Type    { return v.VarType }

func (v *VariableRef) Evaluate(_ *runtime.Execution, rc runtime.Context) (types.Value, error) {
	val, err := rc.Get(v.Name)
	if err != nil {
		return types.Value{}, runtime.WithLine(err, v.Position.Line)
	}
	return val, nil
}

func (v *VariableRef) Locate(_ *runtime.Execution, rc runtime.Context) (Location, error) {
	return &variableLocation{rc: rc, key: v.Name}, nil
}

type variableLocation struct {
	rc  runtime.Context
	key string
}

func (l *variableLocation) Load() (types.Value, error) { return l.rc.Get(l.key) }
func (l *variableLocation) Store(v types.Value) error  { return l.rc.Set(l.key, v) }

// IndexExpression is a[i].
type IndexExpression struct {
	Position lexer.Position
	Array    Expression
	Index    Expression
}

func (e *IndexExpression) Pos() lexer.Position { return e.Position }
func (e *IndexExpression) Type() types.Type    { return e.Array.Type().Elem() }

func (e *IndexExpression) element(ex *runtime.Execution, rc runtime.Context) (*types.Array, int, error) {
	av, err := e.Array.Evaluate(ex, rc)
	if err != nil {
		return nil, 0, err
	}
	iv, err := e.Index.Evaluate(ex, rc)
	if err != nil {
		return nil, 0, err
	}
	arr := av.Array()
	n := 0
	if arr != nil {
		n = len(arr.Items)
	}
	i := iv.Int()
	if i < 0 || i >= int64(n) {
		return nil, 0, runtime.NewRuntimeErrorWithLine(runtime.ErrorIndexOutOfRange, e.Position.Line,
			"index %d out of range for array of length %d", i, n)
	}
	return arr, int(i), nil
}

func (e *IndexExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	arr, i, err := e.element(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	return arr.Items[i], nil
}

func (e *IndexExpression) Locate(ex *runtime.Execution, rc runtime.Context) (Location, error) {
	arr, i, err := e.element(ex, rc)
	if err != nil {
		return nil, err
	}
	return &elementLocation{arr: arr, index: i, pos: e.Position}, nil
}

type elementLocation struct {
	arr   *types.Array
	index int
	pos   lexer.Position
}

func (l *elementLocation) Load() (types.Value, error) { return l.arr.Items[l.index], nil }

func (l *elementLocation) Store(v types.Value) error {
	if !types.Assignable(v.Type(), l.arr.Elem) {
		return runtime.NewRuntimeErrorWithLine(runtime.ErrorTypeMismatch, l.pos.Line,
			"type mismatch: cannot store %s in %s[]", v.Type(), l.arr.Elem)
	}
	w, err := types.Widen(v, l.arr.Elem)
	if err != nil {
		return err
	}
	l.arr.Items[l.index] = w
	return nil
}

// UnaryOp is a prefix operator.
type UnaryOp uint8

const (
	OpNegate UnaryOp = iota
	OpNot
)

// UnaryExpression is -x or !x.
type UnaryExpression struct {
	Position lexer.Position
	Op       UnaryOp
	Operand  Expression
}

func (e *UnaryExpression) Pos() lexer.Position { return e.Position }

func (e *UnaryExpression) Type() types.Type {
	if e.Op == OpNot {
		return types.Bool
	}
	return e.Operand.Type()
}

func (e *UnaryExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	v, err := e.Operand.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	if e.Op == OpNot {
		return types.BoolValue(!v.Bool()), nil
	}
	if v.Type().Kind() == types.KindInt {
		return types.IntValue(-v.Int()), nil
	}
	return types.DoubleValue(-v.Double()), nil
}

// BinaryExpression is an arithmetic, concatenation or comparison operator.
type BinaryExpression struct {
	Position   lexer.Position
	Op         BinaryOp
	Left       Expression
	Right      Expression
	ResultType types.Type
}

func (e *BinaryExpression) Pos() lexer.Position { return e.Position }
func (e *BinaryExpression) Type() types.Type    { return e.ResultType }

func (e *BinaryExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	l, err := e.Left.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	r, err := e.Right.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	return ApplyBinary(e.Op, l, r, e.Position)
}

// LogicalExpression is a short-circuit && or ||.
type LogicalExpression struct {
	Position lexer.Position
	Or       bool
	Left     Expression
	Right    Expression
}

func (e *LogicalExpression) Pos() lexer.Position { return e.Position }
func (e *LogicalExpression) Type() types.Type    { return types.Bool }

func (e *LogicalExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	l, err := e.Left.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	if l.Bool() == e.Or {
		return l, nil
	}
	return e.Right.Evaluate(ex, rc)
}

// ConditionalExpression is c ? a : b.
type ConditionalExpression struct {
	Position   lexer.Position
	Cond       Expression
	Then       Expression
	Else       Expression
	ResultType types.Type
}

func (e *ConditionalExpression) Pos() lexer.Position { return e.Position }
func (e *ConditionalExpression) Type() types.Type    { return e.ResultType }

func (e *ConditionalExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	c, err := e.Cond.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	branch := e.Else
	if c.Bool() {
		branch = e.Then
	}
	v, err := branch.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	return types.Widen(v, e.ResultType)
}

// ConversionExpression applies the conversion table, either for an explicit
// cast or where the parser accepted a loose match.
type ConversionExpression struct {
	Position lexer.Position
	Operand  Expression
	To       types.Type
}

func (e *ConversionExpression) Pos() lexer.Position { return e.Position }
func (e *ConversionExpression) Type() types.Type    { return e.To }

func (e *ConversionExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	v, err := e.Operand.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	return convert(v, e.To, e.Position)
}

// LengthExpression is x.Length on an array or string. Strings count runes.
type LengthExpression struct {
	Position lexer.Position
	Operand  Expression
}

func (e *LengthExpression) Pos() lexer.Position { return e.Position }
func (e *LengthExpression) Type() types.Type    { return types.Int }

func (e *LengthExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	v, err := e.Operand.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	if v.Type().Kind() == types.KindString {
		return types.IntValue(int64(utf8.RuneCountInString(v.Str()))), nil
	}
	if v.Array() == nil {
		return types.IntValue(0), nil
	}
	return types.IntValue(int64(len(v.Array().Items))), nil
}

// NewArrayExpression is new T[n]; elements start at T's zero value.
type NewArrayExpression struct {
	Position lexer.Position
	Elem     types.Type
	Size     Expression
}

func (e *NewArrayExpression) Pos() lexer.Position { return e.Position }
func (e *NewArrayExpression) Type() types.Type    { return types.ArrayOf(e.Elem) }

func (e *NewArrayExpression) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	sv, err := e.Size.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	n := sv.Int()
	if n < 0 {
		return types.Value{}, runtime.NewRuntimeErrorWithLine(runtime.ErrorIndexOutOfRange, e.Position.Line,
			"negative array size %d", n)
	}
	items := make([]types.Value, n)
	for i := range items {
		items[i] = types.Zero(e.Elem)
	}
	return types.ArrayValue(e.Elem, items), nil
}

// ArrayLiteral is new T[] { a, b, ... }.
type ArrayLiteral struct {
	Position lexer.Position
	Elem     types.Type
	Items    []Expression
}

func (e *ArrayLiteral) Pos() lexer.Position { return e.Position }
func (e *ArrayLiteral) Type() types.Type    { return types.ArrayOf(e.Elem) }

func (e *ArrayLiteral) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	items := make([]types.Value, len(e.Items))
	for i, item := range e.Items {
		v, err := item.Evaluate(ex, rc)
		if err != nil {
			return types.Value{}, err
		}
		if items[i], err = convert(v, e.Elem, item.Pos()); err != nil {
			return types.Value{}, err
		}
	}
	return types.ArrayValue(e.Elem, items), nil
}
