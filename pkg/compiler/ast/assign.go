package ast

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Assignment is target = value, or a compound form such as target += value
// when Compound is set. Its value is the stored value.
type Assignment struct {
	Position lexer.Position
	Target   Assignable
	Value    Expression
	Compound bool
	Op       BinaryOp
}

func (a *Assignment) Pos() lexer.Position { return a.Position }
func (a *Assignment) Type() types.Type    { return a.Target.Type() }

func (a *Assignment) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	loc, err := a.Target.Locate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	var v types.Value
	if a.Compound {
		cur, err := loc.Load()
		if err != nil {
			return types.Value{}, runtime.WithLine(err, a.Position.Line)
		}
		rhs, err := a.Value.Evaluate(ex, rc)
		if err != nil {
			return types.Value{}, err
		}
		if v, err = ApplyBinary(a.Op, cur, rhs, a.Position); err != nil {
			return types.Value{}, err
		}
	} else {
		if v, err = a.Value.Evaluate(ex, rc); err != nil {
			return types.Value{}, err
		}
	}
	if v, err = convert(v, a.Target.Type(), a.Position); err != nil {
		return types.Value{}, err
	}
	if err := loc.Store(v); err != nil {
		return types.Value{}, runtime.WithLine(err, a.Position.Line)
	}
	return v, nil
}

// IncDec is ++x, --x, x++ or x--.
type IncDec struct {
	Position  lexer.Position
	Target    Assignable
	Decrement bool
	Prefix    bool
}

func (e *IncDec) Pos() lexer.Position { return e.Position }
func (e *IncDec) Type() types.Type    { return e.Target.Type() }

func (e *IncDec) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	loc, err := e.Target.Locate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	old, err := loc.Load()
	if err != nil {
		return types.Value{}, runtime.WithLine(err, e.Position.Line)
	}
	delta := int64(1)
	if e.Decrement {
		delta = -1
	}
	var next types.Value
	if old.Type().Kind() == types.KindInt {
		next = types.IntValue(old.Int() + delta)
	} else {
		next = types.DoubleValue(old.Double() + float64(delta))
	}
	if err := loc.Store(next); err != nil {
		return types.Value{}, runtime.WithLine(err, e.Position.Line)
	}
	if e.Prefix {
		return next, nil
	}
	return old, nil
}
