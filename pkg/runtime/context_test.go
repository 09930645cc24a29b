package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

func TestContextChainLookup(t *testing.T) {
	g := NewGlobalRuntimeContext()
	if err := g.Declare("shared", types.Int, types.IntValue(1)); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := g.Declare("hidden", types.Int, types.IntValue(2)); err != nil {
		t.Fatalf("Declare: %v", err)
	}

	sc := NewScriptRuntimeContext(g)
	if err := sc.DeclareNewGlobal("shared", types.Int, nil); err != nil {
		t.Fatalf("DeclareNewGlobal: %v", err)
	}
	if err := sc.Declare("member", types.String, types.StringValue("m")); err != nil {
		t.Fatalf("Declare member: %v", err)
	}
	fn, err := NewFunctionRuntimeContext(sc, []types.ArgumentData{{Identifier: "p", Type: types.Double}}, []types.Value{types.IntValue(3)})
	if err != nil {
		t.Fatalf("NewFunctionRuntimeContext: %v", err)
	}
	scope := NewScopeRuntimeContext(fn)
	if err := scope.Declare("local", types.Bool, types.BoolValue(true)); err != nil {
		t.Fatalf("Declare local: %v", err)
	}

	tests := []struct {
		key   string
		found bool
		value types.Value
	}{
		{"local", true, types.BoolValue(true)},
		{"p", true, types.DoubleValue(3)},
		{"member", true, types.StringValue("m")},
		{"shared", true, types.IntValue(1)},
		// undeclared globals are invisible to the script
		{"hidden", false, types.Value{}},
		{"missing", false, types.Value{}},
	}

	for i, tt := range tests {
		v, err := scope.Get(tt.key)
		if !tt.found {
			if !errors.Is(err, ErrUndefinedVar) {
				t.Fatalf("tests[%d] - %s: expected UNDEFINED_VARIABLE, got %v", i, tt.key, err)
			}
			if scope.Has(tt.key) {
				t.Fatalf("tests[%d] - %s: Has must be false", i, tt.key)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error %v", i, tt.key, err)
		}
		if !v.Type().Equal(tt.value.Type()) || !v.Equal(tt.value) {
			t.Fatalf("tests[%d] - %s: expected %s (%s), got %s (%s)",
				i, tt.key, tt.value, tt.value.Type(), v, v.Type())
		}
	}

	if scope.Global() != g || scope.Script() != sc || fn.Parent() != sc {
		t.Error("chain accessors do not point at the owning contexts")
	}
}

func TestGlobalKeys(t *testing.T) {
	g := NewGlobalRuntimeContext()
	for _, key := range []string{"trials", "best", "level"} {
		if err := g.Declare(key, types.Int, types.IntValue(0)); err != nil {
			t.Fatalf("Declare(%s): %v", key, err)
		}
	}
	sc := NewScriptRuntimeContext(g)
	if err := sc.Declare("local", types.Int, types.IntValue(1)); err != nil {
		t.Fatalf("Declare(local): %v", err)
	}

	got := g.Keys()
	want := []string{"best", "level", "trials"}
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
	}
}

func TestContextAssignment(t *testing.T) {
	g := NewGlobalRuntimeContext()
	sc := NewScriptRuntimeContext(g)
	if err := sc.DeclareNewGlobal("score", types.Double, func() (types.Value, error) {
		return types.DoubleValue(0.5), nil
	}); err != nil {
		t.Fatalf("DeclareNewGlobal: %v", err)
	}
	scope := NewScopeRuntimeContext(sc)

	if err := scope.Set("score", types.IntValue(4)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ := g.Get("score")
	if !v.Type().Equal(types.Double) || v.Double() != 4 {
		t.Errorf("assignment must widen and reach the global, got %s %s", v.Type(), v)
	}

	if err := scope.Set("score", types.StringValue("x")); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
	if err := scope.Set("nothing", types.IntValue(1)); !errors.Is(err, ErrUndefinedVar) {
		t.Errorf("expected UNDEFINED_VARIABLE, got %v", err)
	}
	if err := sc.Declare("m", types.Int, types.IntValue(0)); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := sc.Declare("m", types.Int, types.IntValue(0)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected INVALID_STATE on redeclaration, got %v", err)
	}
}

func TestDeclareGlobals(t *testing.T) {
	tests := []struct {
		name    string
		seed    map[string]types.Value
		extern  bool
		typ     types.Type
		wantErr error
		want    types.Value
	}{
		{"new global", nil, false, types.Int, nil, types.IntValue(7)},
		{"existing same type keeps value", map[string]types.Value{"k": types.IntValue(9)}, false, types.Int, nil, types.IntValue(9)},
		{"existing other type", map[string]types.Value{"k": types.StringValue("s")}, false, types.Int, ErrTypeMismatch, types.Value{}},
		{"extern present", map[string]types.Value{"k": types.IntValue(1)}, true, types.Int, nil, types.IntValue(1)},
		{"extern missing", nil, true, types.Int, ErrMissingGlobal, types.Value{}},
		{"extern exact type", map[string]types.Value{"k": types.IntValue(1)}, true, types.Double, ErrTypeMismatch, types.Value{}},
	}

	for i, tt := range tests {
		g := NewGlobalRuntimeContext()
		for k, v := range tt.seed {
			if err := g.Declare(k, v.Type(), v); err != nil {
				t.Fatalf("tests[%d] - seed: %v", i, err)
			}
		}
		sc := NewScriptRuntimeContext(g)
		var err error
		if tt.extern {
			err = sc.DeclareExistingGlobal("k", tt.typ)
		} else {
			err = sc.DeclareNewGlobal("k", tt.typ, func() (types.Value, error) { return types.IntValue(7), nil })
		}
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("tests[%d] - %s: expected %v, got %v", i, tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error %v", i, tt.name, err)
		}
		v, err := sc.Get("k")
		if err != nil || !v.Equal(tt.want) {
			t.Fatalf("tests[%d] - %s: expected %s, got %s (%v)", i, tt.name, tt.want, v, err)
		}
		if got := sc.DeclaredGlobals(); len(got) != 1 || got[0].Key != "k" {
			t.Fatalf("tests[%d] - %s: DeclaredGlobals = %v", i, tt.name, got)
		}
	}
}

func TestFunctionContextArgumentCount(t *testing.T) {
	sc := NewScriptRuntimeContext(NewGlobalRuntimeContext())
	args := []types.ArgumentData{{Identifier: "a", Type: types.Int}}
	if _, err := NewFunctionRuntimeContext(sc, args, nil); !errors.Is(err, ErrArgumentCount) {
		t.Errorf("expected ARGUMENT_COUNT, got %v", err)
	}
	if _, err := NewFunctionRuntimeContext(sc, args, []types.Value{types.StringValue("x")}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH, got %v", err)
	}
}

func TestReturnValueSlot(t *testing.T) {
	g := NewGlobalRuntimeContext()
	if _, ok := g.PopReturnValue(); ok {
		t.Fatal("slot must start empty")
	}
	g.PushReturnValue(types.IntValue(3))
	v, ok := g.PopReturnValue()
	if !ok || v.Int() != 3 {
		t.Fatalf("expected 3, got %s (%v)", v, ok)
	}
	if _, ok := g.PopReturnValue(); ok {
		t.Fatal("pop must clear the slot")
	}
}

func TestExecutionCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ex := NewExecution(ctx)
	if err := ex.Checkpoint(); err != nil {
		t.Fatalf("unexpected error before cancel: %v", err)
	}
	cancel()
	err := ex.Checkpoint()
	if !errors.Is(err, ErrOperationCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		t.Error("cancellation must not be a RuntimeError")
	}
}

func TestExecutionCallDepth(t *testing.T) {
	ex := NewExecution(context.Background(), WithMaxCallDepth(3))
	for i := 0; i < 3; i++ {
		if err := ex.Enter(); err != nil {
			t.Fatalf("Enter %d: %v", i, err)
		}
	}
	if err := ex.Enter(); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("expected STACK_OVERFLOW, got %v", err)
	}
	ex.Leave()
	if ex.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", ex.Depth())
	}
	if err := ex.Enter(); err != nil {
		t.Fatalf("Enter after Leave: %v", err)
	}
}

func TestWithLine(t *testing.T) {
	err := WithLine(NewRuntimeError(ErrorDivisionByZero, "division by zero"), 12)
	var re *RuntimeError
	if !errors.As(err, &re) || re.Line != 12 {
		t.Fatalf("expected line 12, got %v", err)
	}
	// an existing line is kept
	WithLine(err, 40)
	if re.Line != 12 {
		t.Errorf("WithLine overwrote line: %d", re.Line)
	}
	if got := re.Error(); got != "[DIVISION_BY_ZERO] division by zero at line 12" {
		t.Errorf("Error() = %q", got)
	}
	if WithLine(nil, 3) != nil {
		t.Error("WithLine(nil) must stay nil")
	}
}

func TestProperty_ScopeShadowing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("inner declarations shadow and vanish with the scope", prop.ForAll(
		func(outer, inner int64) bool {
			sc := NewScriptRuntimeContext(NewGlobalRuntimeContext())
			fn, err := NewFunctionRuntimeContext(sc, []types.ArgumentData{{Identifier: "x", Type: types.Int}}, []types.Value{types.IntValue(outer)})
			if err != nil {
				return false
			}
			scope := NewScopeRuntimeContext(fn)
			if err := scope.Declare("x", types.Int, types.IntValue(inner)); err != nil {
				return false
			}
			in, _ := scope.Get("x")
			out, _ := fn.Get("x")
			return in.Int() == inner && out.Int() == outer
		},
		gen.Int64(),
		gen.Int64(),
	))

	properties.Property("assignment through a scope updates the owner", prop.ForAll(
		func(values []int64) bool {
			g := NewGlobalRuntimeContext()
			sc := NewScriptRuntimeContext(g)
			if err := sc.DeclareNewGlobal("total", types.Int, nil); err != nil {
				return false
			}
			scope := NewScopeRuntimeContext(sc)
			var sum int64
			for _, v := range values {
				sum += v
				if err := scope.Set("total", types.IntValue(sum)); err != nil {
					return false
				}
			}
			got, err := g.Get("total")
			return err == nil && got.Int() == sum
		},
		gen.SliceOf(gen.Int64Range(-1000, 1000)),
	))

	properties.TestingRun(t)
}
