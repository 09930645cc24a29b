// Package ast defines the typed syntax tree produced by the parser and the
// tree-walking evaluation of its nodes.
//
// Expression nodes carry the static type computed at parse time and produce
// a types.Value when evaluated. Statement nodes execute for effect and report
// a runtime.FlowState. Every node evaluates against a runtime.Context and the
// per-invocation runtime.Execution, which carries cancellation and call depth.
package ast

import (
	"errors"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Node is implemented by every tree node.
type Node interface {
	Pos() lexer.Position
}

// Expression is a value-producing node.
type Expression interface {
	Node
	Type() types.Type
	Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error)
}

// Assignable is an expression that denotes a storage location.
type Assignable interface {
	Expression
	Locate(ex *runtime.Execution, rc runtime.Context) (Location, error)
}

// Location is a resolved storage slot.
type Location interface {
	Load() (types.Value, error)
	Store(v types.Value) error
}

// Statement is an effectful node.
type Statement interface {
	Node
	Execute(ex *runtime.Execution, rc runtime.Context) (runtime.FlowState, error)
}

// Declaration is a top-level variable declaration. Execute runs once per
// prepared script instance.
type Declaration interface {
	Node
	Identifier() string
	ValueType() types.Type
	Execute(ex *runtime.Execution, sc *runtime.ScriptRuntimeContext) error
}

// convert applies the conversion table and reports failures as runtime type
// mismatches.
func convert(v types.Value, to types.Type, pos lexer.Position) (types.Value, error) {
	out, err := types.Convert(v, to)
	if err != nil {
		var ce *types.ConversionError
		if errors.As(err, &ce) {
			return types.Value{}, &runtime.RuntimeError{
				Type:    runtime.ErrorTypeMismatch,
				Message: ce.Error(),
				Line:    pos.Line,
				Cause:   err,
			}
		}
		return types.Value{}, err
	}
	return out, nil
}

// executeList runs statements in order inside rc, polling cancellation
// before each one, and stops at the first non-Nominal flow.
func executeList(ex *runtime.Execution, rc runtime.Context, stmts []Statement) (runtime.FlowState, error) {
	for _, s := range stmts {
		if err := ex.Checkpoint(); err != nil {
			return runtime.Nominal, err
		}
		flow, err := s.Execute(ex, rc)
		if err != nil {
			return runtime.Nominal, runtime.WithLine(err, s.Pos().Line)
		}
		if flow != runtime.Nominal {
			return flow, nil
		}
	}
	return runtime.Nominal, nil
}
