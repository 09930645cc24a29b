package interop

import (
	"context"
	"fmt"
	"reflect"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// The builders below derive an Adapter from a plain Go function whose
// parameter and result types map onto script types (bool, integers, floats,
// string and slices of those). An unsupported Go type is reported when the
// adapter is registered.

// Func0 adapts func() R.
func Func0[R any](fn func() R) Adapter {
	return build[R](paramList{}, func(recv types.Value, args []types.Value) (any, error) {
		return fn(), nil
	})
}

// Func1 adapts func(A) R.
func Func1[A, R any](fn func(A) R) Adapter {
	return build[R](params(typeOf[A]()), func(recv types.Value, args []types.Value) (any, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(a), nil
	})
}

// Func2 adapts func(A, B) R.
func Func2[A, B, R any](fn func(A, B) R) Adapter {
	return build[R](params(typeOf[A](), typeOf[B]()), func(recv types.Value, args []types.Value) (any, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(a, b), nil
	})
}

// Func3 adapts func(A, B, C) R.
func Func3[A, B, C, R any](fn func(A, B, C) R) Adapter {
	return build[R](params(typeOf[A](), typeOf[B](), typeOf[C]()), func(recv types.Value, args []types.Value) (any, error) {
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		c, err := arg[C](args, 2)
		if err != nil {
			return nil, err
		}
		return fn(a, b, c), nil
	})
}

// Action1 adapts func(A) as a void member.
func Action1[A any](fn func(A)) Adapter {
	return buildVoid(params(typeOf[A]()), func(recv types.Value, args []types.Value) error {
		a, err := arg[A](args, 0)
		if err != nil {
			return err
		}
		fn(a)
		return nil
	})
}

// Action2 adapts func(A, B) as a void member.
func Action2[A, B any](fn func(A, B)) Adapter {
	return buildVoid(params(typeOf[A](), typeOf[B]()), func(recv types.Value, args []types.Value) error {
		a, err := arg[A](args, 0)
		if err != nil {
			return err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return err
		}
		fn(a, b)
		return nil
	})
}

// Method0 adapts func(H) R as an instance method on receivers of Go type H.
func Method0[H, R any](fn func(H) R) Adapter {
	return build[R](paramList{}, func(recv types.Value, args []types.Value) (any, error) {
		h, err := receiver[H](recv)
		if err != nil {
			return nil, err
		}
		return fn(h), nil
	})
}

// Method1 adapts func(H, A) R as an instance method.
func Method1[H, A, R any](fn func(H, A) R) Adapter {
	return build[R](params(typeOf[A]()), func(recv types.Value, args []types.Value) (any, error) {
		h, err := receiver[H](recv)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(h, a), nil
	})
}

// Method2 adapts func(H, A, B) R as an instance method.
func Method2[H, A, B, R any](fn func(H, A, B) R) Adapter {
	return build[R](params(typeOf[A](), typeOf[B]()), func(recv types.Value, args []types.Value) (any, error) {
		h, err := receiver[H](recv)
		if err != nil {
			return nil, err
		}
		a, err := arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(h, a, b), nil
	})
}

type typeResult struct {
	t   types.Type
	err error
}

func typeOf[T any]() typeResult {
	t, err := types.NativeType(reflect.TypeFor[T]())
	return typeResult{t: t, err: err}
}

type paramList struct {
	args []types.ArgumentData
	err  error
}

func params(ts ...typeResult) paramList {
	out := make([]types.ArgumentData, len(ts))
	for i, t := range ts {
		if t.err != nil {
			return paramList{err: fmt.Errorf("parameter %d: %w", i, t.err)}
		}
		out[i] = types.ArgumentData{Identifier: fmt.Sprintf("arg%d", i), Type: t.t}
	}
	return paramList{args: out}
}

func build[R any](ps paramList, call func(recv types.Value, args []types.Value) (any, error)) Adapter {
	if ps.err != nil {
		return Adapter{err: ps.err}
	}
	ret := typeOf[R]()
	if ret.err != nil {
		return Adapter{err: fmt.Errorf("result: %w", ret.err)}
	}
	return Adapter{
		Params: ps.args,
		Return: ret.t,
		Invoke: func(_ context.Context, recv types.Value, args []types.Value) (types.Value, error) {
			out, err := call(recv, args)
			if err != nil {
				return types.Value{}, err
			}
			v, err := types.FromNative(out)
			if err != nil {
				return types.Value{}, err
			}
			return types.Widen(v, ret.t)
		},
	}
}

func buildVoid(ps paramList, call func(recv types.Value, args []types.Value) error) Adapter {
	if ps.err != nil {
		return Adapter{err: ps.err}
	}
	return Adapter{
		Params: ps.args,
		Return: types.Void,
		Invoke: func(_ context.Context, recv types.Value, args []types.Value) (types.Value, error) {
			return types.VoidValue, call(recv, args)
		},
	}
}

func arg[T any](args []types.Value, i int) (T, error) {
	var out T
	if i >= len(args) {
		return out, fmt.Errorf("missing argument %d", i)
	}
	if err := types.AssignNative(&out, args[i]); err != nil {
		return out, fmt.Errorf("argument %d: %w", i, err)
	}
	return out, nil
}

func receiver[H any](recv types.Value) (H, error) {
	if recv.Type().Kind() == types.KindHost {
		h, ok := recv.Host().(H)
		if !ok {
			var zero H
			return zero, fmt.Errorf("receiver %s is %T, not %s", recv.Type(), recv.Host(), reflect.TypeFor[H]())
		}
		return h, nil
	}
	var out H
	if err := types.AssignNative(&out, recv); err != nil {
		return out, fmt.Errorf("receiver: %w", err)
	}
	return out, nil
}
