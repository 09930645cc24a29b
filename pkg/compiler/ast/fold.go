package ast

import (
	"context"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
)

// Fold reduces an expression built only from literals and pure operators to
// a Literal. Expressions that are not constant, or whose evaluation fails
// (for example an integer division by zero), are returned unchanged so the
// failure surfaces at run time.
func Fold(e Expression) Expression {
	if _, ok := e.(*Literal); ok || !IsConstant(e) {
		return e
	}
	v, err := e.Evaluate(runtime.NewExecution(context.Background()), nil)
	if err != nil {
		return e
	}
	return &Literal{Position: e.Pos(), Value: v}
}

// IsConstant reports whether e can be evaluated without a context.
func IsConstant(e Expression) bool {
	switch n := e.(type) {
	case *Literal:
		return true
	case *UnaryExpression:
		return IsConstant(n.Operand)
	case *BinaryExpression:
		return IsConstant(n.Left) && IsConstant(n.Right)
	case *LogicalExpression:
		return IsConstant(n.Left) && IsConstant(n.Right)
	case *ConditionalExpression:
		return IsConstant(n.Cond) && IsConstant(n.Then) && IsConstant(n.Else)
	case *ConversionExpression:
		return IsConstant(n.Operand)
	}
	return false
}
