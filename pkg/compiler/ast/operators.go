package ast

import (
	"math"
	"strings"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// BinaryOp is an infix operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpConcat
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
)

var binaryOpNames = [...]string{
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulo:       "%",
	OpConcat:       "+",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpGreater:      ">",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// IsComparison reports whether op yields bool.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual
}

// IsArithmetic reports whether op is a numeric operator.
func (op BinaryOp) IsArithmetic() bool {
	return op <= OpModulo
}

// BinaryResultType type-checks op applied to operands of types l and r.
// ok is false when the combination is not defined.
func BinaryResultType(op BinaryOp, l, r types.Type) (result types.Type, actual BinaryOp, ok bool) {
	switch {
	case op == OpAdd && (l.Kind() == types.KindString || r.Kind() == types.KindString):
		if l.IsVoid() || r.IsVoid() {
			return types.Type{}, op, false
		}
		return types.String, OpConcat, true
	case op.IsArithmetic():
		if !l.IsNumeric() || !r.IsNumeric() {
			return types.Type{}, op, false
		}
		return types.BinaryNumericType(l, r), op, true
	case op == OpEqual || op == OpNotEqual:
		if (l.IsNumeric() && r.IsNumeric()) || (l.Equal(r) && !l.IsVoid()) {
			return types.Bool, op, true
		}
		return types.Type{}, op, false
	case op.IsComparison():
		if (l.IsNumeric() && r.IsNumeric()) || (l.Kind() == types.KindString && r.Kind() == types.KindString) {
			return types.Bool, op, true
		}
		return types.Type{}, op, false
	}
	return types.Type{}, op, false
}

// ApplyBinary evaluates op on two operand values already type-checked by
// BinaryResultType.
func ApplyBinary(op BinaryOp, l, r types.Value, pos lexer.Position) (types.Value, error) {
	switch op {
	case OpConcat:
		return types.StringValue(l.String() + r.String()), nil
	case OpEqual:
		return types.BoolValue(l.Equal(r)), nil
	case OpNotEqual:
		return types.BoolValue(!l.Equal(r)), nil
	}

	if op.IsComparison() {
		var c int
		if l.Type().Kind() == types.KindString {
			c = strings.Compare(l.Str(), r.Str())
		} else {
			c = compareNumbers(l, r)
		}
		switch op {
		case OpLess:
			return types.BoolValue(c < 0), nil
		case OpGreater:
			return types.BoolValue(c > 0), nil
		case OpLessEqual:
			return types.BoolValue(c <= 0), nil
		default:
			return types.BoolValue(c >= 0), nil
		}
	}

	if l.Type().Kind() == types.KindInt && r.Type().Kind() == types.KindInt {
		a, b := l.Int(), r.Int()
		switch op {
		case OpAdd:
			return types.IntValue(a + b), nil
		case OpSubtract:
			return types.IntValue(a - b), nil
		case OpMultiply:
			return types.IntValue(a * b), nil
		case OpDivide, OpModulo:
			if b == 0 {
				return types.Value{}, runtime.NewRuntimeErrorWithLine(runtime.ErrorDivisionByZero, pos.Line,
					"integer division by zero")
			}
			if op == OpDivide {
				return types.IntValue(a / b), nil
			}
			return types.IntValue(a % b), nil
		}
	}

	a, b := l.Float(), r.Float()
	switch op {
	case OpAdd:
		return types.DoubleValue(a + b), nil
	case OpSubtract:
		return types.DoubleValue(a - b), nil
	case OpMultiply:
		return types.DoubleValue(a * b), nil
	case OpDivide:
		return types.DoubleValue(a / b), nil
	case OpModulo:
		return types.DoubleValue(math.Mod(a, b)), nil
	}
	return types.Value{}, runtime.NewRuntimeErrorWithLine(runtime.ErrorInvalidState, pos.Line,
		"unsupported operator %s for %s and %s", op, l.Type(), r.Type())
}

func compareNumbers(l, r types.Value) int {
	if l.Type().Kind() == types.KindInt && r.Type().Kind() == types.KindInt {
		switch {
		case l.Int() < r.Int():
			return -1
		case l.Int() > r.Int():
			return 1
		}
		return 0
	}
	a, b := l.Float(), r.Float()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
