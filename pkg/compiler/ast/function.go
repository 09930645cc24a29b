package ast

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Function is a compiled script function. Body is filled in after all
// top-level declarations are known, so calls may refer to a Function whose
// body has not been parsed yet.
type Function struct {
	Position  lexer.Position
	Signature types.FunctionSignature
	Body      []Statement
	parsed    bool
}

// SetBody installs the parsed body.
func (f *Function) SetBody(body []Statement) {
	f.Body = body
	f.parsed = true
}

// Invoke runs the function in a fresh FunctionRuntimeContext under sc. args
// must match the signature one to one; values passed for out parameters are
// replaced by the zero value. It returns the result and the final values of
// all parameters, from which callers copy back ref and out arguments.
func (f *Function) Invoke(ex *runtime.Execution, sc *runtime.ScriptRuntimeContext, args []types.Value) (types.Value, []types.Value, error) {
	if sc == nil {
		return types.Value{}, nil, runtime.NewRuntimeError(runtime.ErrorInvalidState,
			"%s invoked without a script context", f.Signature.Identifier)
	}
	if !f.parsed {
		return types.Value{}, nil, runtime.NewRuntimeError(runtime.ErrorInvalidState,
			"%s has no body", f.Signature.Identifier)
	}
	if err := ex.Checkpoint(); err != nil {
		return types.Value{}, nil, err
	}
	if err := ex.Enter(); err != nil {
		return types.Value{}, nil, runtime.WithLine(err, f.Position.Line)
	}
	defer ex.Leave()

	bound := args
	if len(args) == len(f.Signature.Arguments) {
		bound = append([]types.Value(nil), args...)
		for i, a := range f.Signature.Arguments {
			if a.Mode == types.Out {
				bound[i] = types.Zero(a.Type)
			}
		}
	}
	fc, err := runtime.NewFunctionRuntimeContext(sc, f.Signature.Arguments, bound)
	if err != nil {
		return types.Value{}, nil, runtime.WithLine(err, f.Position.Line)
	}

	flow, err := executeList(ex, fc, f.Body)
	if err != nil {
		return types.Value{}, nil, err
	}
	ret := types.VoidValue
	switch flow {
	case runtime.Return:
		if v, ok := sc.Global().PopReturnValue(); ok {
			ret = v
		}
	case runtime.LoopBreak, runtime.LoopContinue:
		return types.Value{}, nil, runtime.NewRuntimeError(runtime.ErrorInvalidState,
			"%s escaped the body of %s", flow, f.Signature.Identifier)
	}
	if !f.Signature.ReturnType.IsVoid() && !ret.Type().Equal(f.Signature.ReturnType) {
		return types.Value{}, nil, runtime.NewRuntimeError(runtime.ErrorInvalidState,
			"%s finished without returning %s", f.Signature.Identifier, f.Signature.ReturnType)
	}
	if f.Signature.ReturnType.IsVoid() {
		ret = types.VoidValue
	}

	finals := make([]types.Value, len(f.Signature.Arguments))
	for i, a := range f.Signature.Arguments {
		if a.Mode != types.Ref && a.Mode != types.Out {
			continue
		}
		if finals[i], err = fc.Get(a.Identifier); err != nil {
			return types.Value{}, nil, err
		}
	}
	return ret, finals, nil
}
