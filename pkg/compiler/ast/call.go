package ast

import (
	"context"
	"errors"
	"fmt"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/lexer"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Argument is one actual argument at a call site. To is the type the value
// converts to before binding; it is ignored for ref and out parameters.
type Argument struct {
	Expr Expression
	Mode types.ArgumentMode
	To   types.Type
}

// FunctionCall invokes a script function resolved at parse time.
type FunctionCall struct {
	Position lexer.Position
	Function *Function
	Args     []Argument
	// Expanded packs the trailing arguments into the params array.
	Expanded bool
}

func (c *FunctionCall) Pos() lexer.Position { return c.Position }
func (c *FunctionCall) Type() types.Type    { return c.Function.Signature.ReturnType }

func (c *FunctionCall) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	if err := ex.Checkpoint(); err != nil {
		return types.Value{}, err
	}
	params := c.Function.Signature.Arguments
	values := make([]types.Value, len(params))
	locs := make([]Location, len(params))

	fixed := len(c.Args)
	if c.Expanded {
		fixed = len(params) - 1
	}
	for i := 0; i < fixed; i++ {
		arg := c.Args[i]
		switch params[i].Mode {
		case types.Ref, types.Out:
			target, ok := arg.Expr.(Assignable)
			if !ok {
				return types.Value{}, runtime.NewRuntimeErrorWithLine(runtime.ErrorInvalidState, c.Position.Line,
					"argument %d of %s is not assignable", i, c.Function.Signature.Identifier)
			}
			loc, err := target.Locate(ex, rc)
			if err != nil {
				return types.Value{}, err
			}
			locs[i] = loc
			if params[i].Mode == types.Out {
				values[i] = types.Zero(params[i].Type)
				continue
			}
			if values[i], err = loc.Load(); err != nil {
				return types.Value{}, runtime.WithLine(err, c.Position.Line)
			}
		default:
			v, err := evaluateArgument(ex, rc, arg)
			if err != nil {
				return types.Value{}, err
			}
			values[i] = v
		}
	}
	if c.Expanded {
		packed, err := packParams(ex, rc, params[len(params)-1].Type.Elem(), c.Args[fixed:])
		if err != nil {
			return types.Value{}, err
		}
		values[len(params)-1] = packed
	}

	ret, finals, err := c.Function.Invoke(ex, rc.Script(), values)
	if err != nil {
		return types.Value{}, err
	}
	for i, loc := range locs {
		if loc == nil {
			continue
		}
		if err := loc.Store(finals[i]); err != nil {
			return types.Value{}, runtime.WithLine(err, c.Position.Line)
		}
	}
	return ret, nil
}

func evaluateArgument(ex *runtime.Execution, rc runtime.Context, arg Argument) (types.Value, error) {
	v, err := arg.Expr.Evaluate(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	return convert(v, arg.To, arg.Expr.Pos())
}

func packParams(ex *runtime.Execution, rc runtime.Context, elem types.Type, args []Argument) (types.Value, error) {
	items := make([]types.Value, len(args))
	for i, arg := range args {
		v, err := evaluateArgument(ex, rc, arg)
		if err != nil {
			return types.Value{}, err
		}
		items[i] = v
	}
	return types.ArrayValue(elem, items), nil
}

// HostCall invokes a registered host method. Receiver is nil for static
// methods and free functions.
type HostCall struct {
	Position lexer.Position
	Receiver Expression
	Member   string
	Adapter  interop.Adapter
	Args     []Argument
	Expanded bool
}

func (c *HostCall) Pos() lexer.Position { return c.Position }
func (c *HostCall) Type() types.Type    { return c.Adapter.Return }

func (c *HostCall) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	if err := ex.Checkpoint(); err != nil {
		return types.Value{}, err
	}
	var recv types.Value
	if c.Receiver != nil {
		var err error
		if recv, err = c.Receiver.Evaluate(ex, rc); err != nil {
			return types.Value{}, err
		}
	}

	params := c.Adapter.Params
	values := make([]types.Value, len(params))
	fixed := len(c.Args)
	if c.Expanded {
		fixed = len(params) - 1
	}
	for i := 0; i < fixed; i++ {
		v, err := evaluateArgument(ex, rc, c.Args[i])
		if err != nil {
			return types.Value{}, err
		}
		values[i] = v
	}
	if c.Expanded {
		packed, err := packParams(ex, rc, params[len(params)-1].Type.Elem(), c.Args[fixed:])
		if err != nil {
			return types.Value{}, err
		}
		values[len(params)-1] = packed
	}

	out, err := c.Adapter.Invoke(ex.Context(), recv, values)
	if err != nil {
		return types.Value{}, hostError(err, c.Member, c.Position)
	}
	if c.Adapter.Return.IsVoid() {
		return types.VoidValue, nil
	}
	if !types.Assignable(out.Type(), c.Adapter.Return) {
		return types.Value{}, runtime.NewRuntimeErrorWithLine(runtime.ErrorTypeMismatch, c.Position.Line,
			"%s returned %s, declared %s", c.Member, out.Type(), c.Adapter.Return)
	}
	return types.Widen(out, c.Adapter.Return)
}

// PropertyAccess reads a registered host property. It is assignable when the
// property has a setter.
type PropertyAccess struct {
	Position lexer.Position
	Receiver Expression
	Member   string
	Property interop.Property
}

func (p *PropertyAccess) Pos() lexer.Position { return p.Position }
func (p *PropertyAccess) Type() types.Type    { return p.Property.Type }

func (p *PropertyAccess) receiver(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	if p.Receiver == nil {
		return types.Value{}, nil
	}
	return p.Receiver.Evaluate(ex, rc)
}

func (p *PropertyAccess) Evaluate(ex *runtime.Execution, rc runtime.Context) (types.Value, error) {
	recv, err := p.receiver(ex, rc)
	if err != nil {
		return types.Value{}, err
	}
	v, err := p.Property.Get(ex.Context(), recv)
	if err != nil {
		return types.Value{}, hostError(err, p.Member, p.Position)
	}
	return types.Widen(v, p.Property.Type)
}

func (p *PropertyAccess) Locate(ex *runtime.Execution, rc runtime.Context) (Location, error) {
	if p.Property.Set == nil {
		return nil, runtime.NewRuntimeErrorWithLine(runtime.ErrorInvalidState, p.Position.Line,
			"property %s is read-only", p.Member)
	}
	recv, err := p.receiver(ex, rc)
	if err != nil {
		return nil, err
	}
	return &propertyLocation{ctx: ex.Context(), recv: recv, access: p}, nil
}

type propertyLocation struct {
	ctx    context.Context
	recv   types.Value
	access *PropertyAccess
}

func (l *propertyLocation) Load() (types.Value, error) {
	v, err := l.access.Property.Get(l.ctx, l.recv)
	if err != nil {
		return types.Value{}, hostError(err, l.access.Member, l.access.Position)
	}
	return v, nil
}

func (l *propertyLocation) Store(v types.Value) error {
	if err := l.access.Property.Set(l.ctx, l.recv, v); err != nil {
		return hostError(err, l.access.Member, l.access.Position)
	}
	return nil
}

// hostError keeps engine errors intact and classifies everything else a
// host adapter returns as a failed host call.
func hostError(err error, member string, pos lexer.Position) error {
	var re *runtime.RuntimeError
	var ce *runtime.CancelledError
	if errors.As(err, &re) || errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &runtime.CancelledError{Cause: err}
	}
	return &runtime.RuntimeError{
		Type:    runtime.ErrorHostCall,
		Message: fmt.Sprintf("%s: %v", member, err),
		Line:    pos.Line,
		Cause:   err,
	}
}
