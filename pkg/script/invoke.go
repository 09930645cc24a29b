package script

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// PrepareScript creates a script instance bound to g and runs every
// top-level declaration once, in source order. extern declarations fail
// with MISSING_GLOBAL or TYPE_MISMATCH when g does not hold a matching key.
func (s *Script) PrepareScript(ctx context.Context, g *runtime.GlobalRuntimeContext) (*runtime.ScriptRuntimeContext, error) {
	if g == nil {
		return nil, runtime.NewRuntimeError(runtime.ErrorInvalidState, "%s: nil global context", s.name)
	}
	sc := runtime.NewScriptRuntimeContext(g)
	ex := s.execution(ctx)
	for _, d := range s.program.Declarations {
		if err := d.Execute(ex, sc); err != nil {
			s.log.Debug("script preparation failed", "script", s.name, "declaration", d.Identifier(), "error", err)
			return nil, err
		}
	}
	s.log.Debug("script prepared",
		"script", s.name,
		"instance", sc.ID(),
		"declarations", len(s.program.Declarations))
	return sc, nil
}

// Result is delivered by CallAsync.
type Result[T any] struct {
	Value T
	Err   error
}

// ExecuteFunction invokes name and discards its result.
func (s *Script) ExecuteFunction(ctx context.Context, name string, rc *runtime.ScriptRuntimeContext, args ...any) error {
	_, err := s.call(ctx, name, rc, args)
	return err
}

// Call invokes name and converts its result to T. Host arguments are Go
// values; pointers bind to ref and out parameters and receive their final
// values.
func Call[T any](ctx context.Context, s *Script, name string, rc *runtime.ScriptRuntimeContext, args ...any) (T, error) {
	v, err := s.call(ctx, name, rc, args)
	if err != nil {
		var zero T
		return zero, err
	}
	return resultAs[T](v)
}

// CallWithTimeout is Call bounded by a wall-clock timeout. On expiry the
// invocation stops at the next statement or call boundary and the error
// matches runtime.ErrOperationCancelled. A timeout of zero or less means no
// bound, as in CallAsync.
func CallWithTimeout[T any](s *Script, name string, rc *runtime.ScriptRuntimeContext, timeout time.Duration, args ...any) (T, error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return Call[T](ctx, s, name, rc, args...)
}

// CallAsync runs Call on a new goroutine. The invocation is cancelled when
// ctx is done or, if timeout is positive, when timeout expires. The channel
// receives exactly one Result and is then closed.
func CallAsync[T any](ctx context.Context, s *Script, name string, rc *runtime.ScriptRuntimeContext, timeout time.Duration, args ...any) <-chan Result[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		v, err := Call[T](callCtx, s, name, rc, args...)
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}

// CallByID invokes the function whose signature ID is id.
func CallByID[T any](ctx context.Context, s *Script, id uuid.UUID, rc *runtime.ScriptRuntimeContext, args ...any) (T, error) {
	var zero T
	fn, ok := s.byID[id]
	if !ok {
		return zero, runtime.NewRuntimeError(runtime.ErrorFunctionNotFound, "no function with id %s in %s", id, s.name)
	}
	bound, err := hostArguments(args)
	if err != nil {
		return zero, err
	}
	m, err := types.Resolve([]types.FunctionSignature{fn.Signature}, actualsOf(bound))
	if err != nil {
		return zero, runtime.NewRuntimeError(runtime.ErrorFunctionNotFound,
			"%s does not accept %s", fn.Signature, describeActuals(actualsOf(bound)))
	}
	v, err := s.execute(ctx, fn, m, rc, bound)
	if err != nil {
		return zero, err
	}
	return resultAs[T](v)
}

// hostArg is one host-supplied argument. ptr is set for pointers, which
// bind by reference.
type hostArg struct {
	value types.Value
	mode  types.ArgumentMode
	ptr   any
}

func hostArguments(args []any) ([]hostArg, error) {
	out := make([]hostArg, len(args))
	for i, a := range args {
		rv := reflect.ValueOf(a)
		if rv.Kind() == reflect.Pointer && !rv.IsNil() {
			v, err := types.FromNative(rv.Elem().Interface())
			if err != nil {
				return nil, runtime.NewRuntimeError(runtime.ErrorTypeMismatch, "argument %d: %v", i, err)
			}
			out[i] = hostArg{value: v, mode: types.ByReference, ptr: a}
			continue
		}
		v, err := types.FromNative(a)
		if err != nil {
			return nil, runtime.NewRuntimeError(runtime.ErrorTypeMismatch, "argument %d: %v", i, err)
		}
		out[i] = hostArg{value: v}
	}
	return out, nil
}

func actualsOf(args []hostArg) []types.ActualArgument {
	out := make([]types.ActualArgument, len(args))
	for i, a := range args {
		out[i] = types.ActualArgument{Type: a.value.Type(), Mode: a.mode}
	}
	return out
}

func (s *Script) call(ctx context.Context, name string, rc *runtime.ScriptRuntimeContext, args []any) (types.Value, error) {
	bound, err := hostArguments(args)
	if err != nil {
		return types.Value{}, err
	}
	fn, m, err := s.resolve(name, actualsOf(bound))
	if err != nil {
		return types.Value{}, err
	}
	return s.execute(ctx, fn, m, rc, bound)
}

func (s *Script) execution(ctx context.Context) *runtime.Execution {
	return runtime.NewExecution(ctx,
		runtime.WithMaxCallDepth(s.maxDepth),
		runtime.WithExecutionLogger(s.log))
}

// execute binds host arguments to fn's parameters, runs it and writes ref
// and out results back through the host pointers.
func (s *Script) execute(ctx context.Context, fn *ast.Function, m types.Match, rc *runtime.ScriptRuntimeContext, args []hostArg) (types.Value, error) {
	sig := fn.Signature
	params := sig.Arguments
	values := make([]types.Value, len(params))

	fixed := len(args)
	if m.Expanded {
		fixed = len(params) - 1
	}
	for i := 0; i < fixed; i++ {
		if params[i].Mode == types.Ref || params[i].Mode == types.Out {
			values[i] = args[i].value
			continue
		}
		v, err := types.Convert(args[i].value, params[i].Type)
		if err != nil {
			return types.Value{}, runtime.NewRuntimeError(runtime.ErrorTypeMismatch,
				"argument %d of %s: %v", i, sig.Identifier, err)
		}
		values[i] = v
	}
	if m.Expanded {
		elem := params[len(params)-1].Type.Elem()
		items := make([]types.Value, 0, len(args)-fixed)
		for i := fixed; i < len(args); i++ {
			v, err := types.Convert(args[i].value, elem)
			if err != nil {
				return types.Value{}, runtime.NewRuntimeError(runtime.ErrorTypeMismatch,
					"argument %d of %s: %v", i, sig.Identifier, err)
			}
			items = append(items, v)
		}
		values[len(params)-1] = types.ArrayValue(elem, items)
	}

	start := time.Now()
	s.log.Debug("invoking script function", "script", s.name, "function", sig.String())
	ret, finals, err := fn.Invoke(s.execution(ctx), rc, values)
	if err != nil {
		if errors.Is(err, runtime.ErrOperationCancelled) {
			s.log.Warn("script function cancelled",
				"script", s.name,
				"function", sig.String(),
				"elapsed", time.Since(start),
				"error", err)
		} else {
			s.log.Debug("script function failed", "script", s.name, "function", sig.String(), "error", err)
		}
		return types.Value{}, err
	}

	for i := 0; i < fixed; i++ {
		if args[i].ptr == nil || (params[i].Mode != types.Ref && params[i].Mode != types.Out) {
			continue
		}
		if err := types.AssignNative(args[i].ptr, finals[i]); err != nil {
			return types.Value{}, runtime.NewRuntimeError(runtime.ErrorTypeMismatch,
				"argument %d of %s: %v", i, sig.Identifier, err)
		}
	}
	s.log.Debug("script function returned",
		"script", s.name,
		"function", sig.String(),
		"result", ret.String(),
		"elapsed", time.Since(start))
	return ret, nil
}

// resultAs converts a script result to T. A void result is only accepted
// for interface and empty struct targets.
func resultAs[T any](v types.Value) (T, error) {
	var out T
	if tv, ok := any(&out).(*types.Value); ok {
		*tv = v
		return out, nil
	}
	if v.Type().IsVoid() {
		t := reflect.TypeFor[T]()
		if t.Kind() == reflect.Interface || t == reflect.TypeFor[struct{}]() {
			return out, nil
		}
		return out, runtime.NewRuntimeError(runtime.ErrorTypeMismatch, "function returned void, expected %s", t)
	}
	if err := types.AssignNative(&out, v); err != nil {
		return out, runtime.NewRuntimeError(runtime.ErrorTypeMismatch, "cannot return %s as %T: %v", v.Type(), out, err)
	}
	return out, nil
}
