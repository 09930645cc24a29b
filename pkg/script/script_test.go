package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/parser"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

func mustCompile(t *testing.T, source string, opts ...Option) *Script {
	t.Helper()
	s, err := New(source, opts...)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return s
}

func mustPrepare(t *testing.T, s *Script, g *runtime.GlobalRuntimeContext) *runtime.ScriptRuntimeContext {
	t.Helper()
	if g == nil {
		g = runtime.NewGlobalRuntimeContext()
	}
	sc, err := s.PrepareScript(context.Background(), g)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	return sc
}

func TestNewParsingErrors(t *testing.T) {
	step := types.NewFunctionSignature("Step", types.Int, types.ArgumentData{Identifier: "correct", Type: types.Bool})

	tests := []struct {
		name     string
		source   string
		required []types.FunctionSignature
		kind     error
		line     int
	}{
		{"duplicate member", "int x;\nint x;", nil, parser.ErrDuplicateDeclaration, 2},
		{"duplicate local", "void F() {\n int x;\n int x;\n}", nil, parser.ErrDuplicateDeclaration, 3},
		{"missing required", "int Other() => 1;", []types.FunctionSignature{step}, parser.ErrMissingFunction, 1},
		{"mismatched required", "int Step(int correct) => 1;", []types.FunctionSignature{step}, parser.ErrSignatureMismatch, 1},
		{"undeclared", "int F() => y;", nil, parser.ErrUndeclaredIdentifier, 1},
	}

	for i, tt := range tests {
		_, err := New(tt.source, WithRequired(tt.required...))
		if err == nil {
			t.Fatalf("tests[%d] - %s: expected error", i, tt.name)
		}
		if !errors.Is(err, tt.kind) {
			t.Fatalf("tests[%d] - %s: expected %v, got %v", i, tt.name, tt.kind, err)
		}
		var pe *parser.ParsingError
		if !errors.As(err, &pe) {
			t.Fatalf("tests[%d] - %s: expected *parser.ParsingError, got %T", i, tt.name, err)
		}
		if pe.Line != tt.line {
			t.Fatalf("tests[%d] - %s: expected line %d, got %d", i, tt.name, tt.line, pe.Line)
		}
	}
}

func TestPrepareScriptExtern(t *testing.T) {
	s := mustCompile(t, "extern int score;\nint Get() => score;")

	tests := []struct {
		name    string
		seed    func(g *runtime.GlobalRuntimeContext)
		wantErr error
	}{
		{"missing global", func(*runtime.GlobalRuntimeContext) {}, runtime.ErrMissingGlobal},
		{"wrong type", func(g *runtime.GlobalRuntimeContext) {
			_ = g.Declare("score", types.String, types.StringValue("high"))
		}, runtime.ErrTypeMismatch},
		{"bound", func(g *runtime.GlobalRuntimeContext) {
			_ = g.Declare("score", types.Int, types.IntValue(42))
		}, nil},
	}

	for i, tt := range tests {
		g := runtime.NewGlobalRuntimeContext()
		tt.seed(g)
		sc, err := s.PrepareScript(context.Background(), g)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("tests[%d] - %s: expected %v, got %v", i, tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error: %v", i, tt.name, err)
		}
		got, err := Call[int](context.Background(), s, "Get", sc)
		if err != nil || got != 42 {
			t.Fatalf("tests[%d] - %s: expected 42, got %d (%v)", i, tt.name, got, err)
		}
	}
}

func TestOverloadResolution(t *testing.T) {
	both := mustCompile(t, `
int F(int x) => 1;
int F(double x) => 2;
int CallInt() => F(3);
int CallDouble() => F(3.5);
`)
	onlyDouble := mustCompile(t, `
int F(double x) => 2;
int CallInt() => F(3);
`)

	tests := []struct {
		script   *Script
		function string
		args     []any
		expected int
	}{
		{both, "CallInt", nil, 1},
		{both, "CallDouble", nil, 2},
		{both, "F", []any{3}, 1},
		{both, "F", []any{3.5}, 2},
		{onlyDouble, "CallInt", nil, 2},
		{onlyDouble, "F", []any{3}, 2},
		// string -> double is a loose conversion
		{onlyDouble, "F", []any{"4.5"}, 2},
	}

	for i, tt := range tests {
		sc := mustPrepare(t, tt.script, nil)
		got, err := Call[int](context.Background(), tt.script, tt.function, sc, tt.args...)
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error: %v", i, tt.function, err)
		}
		if got != tt.expected {
			t.Fatalf("tests[%d] - %s: expected %d, got %d", i, tt.function, tt.expected, got)
		}
	}

	sig, err := both.GetFunctionSignature("F", types.Int)
	if err != nil {
		t.Fatalf("GetFunctionSignature failed: %v", err)
	}
	if !sig.Arguments[0].Type.Equal(types.Int) {
		t.Errorf("expected the int overload, got %s", sig)
	}
	if _, err := both.GetFunctionSignature("F", types.Bool); !errors.Is(err, runtime.ErrFunctionNotFound) {
		t.Errorf("expected FUNCTION_NOT_FOUND for F(bool), got %v", err)
	}
}

func TestAmbiguousHostCall(t *testing.T) {
	s := mustCompile(t, `
int F(int x) => 1;
int F(bool x) => 2;
`)
	sc := mustPrepare(t, s, nil)
	// a string converts loosely to both int and bool
	_, err := Call[int](context.Background(), s, "F", sc, "1")
	if !errors.Is(err, runtime.ErrAmbiguousOverload) {
		t.Fatalf("expected AMBIGUOUS_OVERLOAD, got %v", err)
	}
}

func TestRefOutRoundTrip(t *testing.T) {
	s := mustCompile(t, `
void Inc(ref int x) { x = x + 1; }
void Split(double d, out int whole) { whole = (int)d; }
int Run() {
	int v = 5;
	Inc(ref v);
	return v;
}
`)
	sc := mustPrepare(t, s, nil)
	ctx := context.Background()

	x := 5
	if err := s.ExecuteFunction(ctx, "Inc", sc, &x); err != nil {
		t.Fatalf("Inc failed: %v", err)
	}
	if x != 6 {
		t.Errorf("expected 6 after Inc, got %d", x)
	}

	whole := -1
	if err := s.ExecuteFunction(ctx, "Split", sc, 3.0, &whole); err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if whole != 3 {
		t.Errorf("expected 3 after Split, got %d", whole)
	}

	small := int8(127)
	if err := s.ExecuteFunction(ctx, "Inc", sc, &small); !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH writing 128 back into an int8, got %v", err)
	}
	if small != 127 {
		t.Errorf("a failed write-back must leave the host value alone, got %d", small)
	}

	got, err := Call[int](ctx, s, "Run", sc)
	if err != nil || got != 6 {
		t.Errorf("expected Run() == 6, got %d (%v)", got, err)
	}

	// a plain value cannot bind to a ref parameter
	if err := s.ExecuteFunction(ctx, "Inc", sc, 5); !errors.Is(err, runtime.ErrFunctionNotFound) {
		t.Errorf("expected FUNCTION_NOT_FOUND for a by-value ref argument, got %v", err)
	}
}

func TestCancellation(t *testing.T) {
	s := mustCompile(t, `
void Spin() { while (true) { } }
int Quick() {
	int n = 0;
	for (int i = 0; i < 3; i++) { n++; }
	return n;
}
int Forever() {
	int i = 0;
	for (;;) { i++; }
}
`)
	sc := mustPrepare(t, s, nil)

	start := time.Now()
	select {
	case res := <-CallAsync[struct{}](context.Background(), s, "Spin", sc, 50*time.Millisecond):
		if !errors.Is(res.Err, runtime.ErrOperationCancelled) {
			t.Fatalf("expected cancellation, got %v", res.Err)
		}
		if !errors.Is(res.Err, context.DeadlineExceeded) {
			t.Errorf("expected the deadline as cause, got %v", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("async call was not cancelled")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}

	_, err := CallWithTimeout[int](s, "Forever", sc, 20*time.Millisecond)
	if !errors.Is(err, runtime.ErrOperationCancelled) {
		t.Fatalf("expected cancellation from CallWithTimeout, got %v", err)
	}

	for _, unbounded := range []time.Duration{0, -time.Second} {
		if got, err := CallWithTimeout[int](s, "Quick", sc, unbounded); err != nil || got != 3 {
			t.Fatalf("CallWithTimeout with timeout %v = %d (%v), want an unbounded call", unbounded, got, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := CallAsync[int](ctx, s, "Forever", sc, 0)
	cancel()
	select {
	case res := <-ch:
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("external cancellation was not observed")
	}
}

func TestGlobalSharing(t *testing.T) {
	owner := mustCompile(t, "global int score = 10;\nint Get() => score;", WithName("owner"))
	user := mustCompile(t, "extern int score;\nvoid Add(int n) { score += n; }", WithName("user"))
	if err := Rectify(owner, user); err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}

	g := runtime.NewGlobalRuntimeContext()
	ownerSC := mustPrepare(t, owner, g)
	userSC := mustPrepare(t, user, g)

	if err := user.ExecuteFunction(context.Background(), "Add", userSC, 5); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	got, err := Call[int](context.Background(), owner, "Get", ownerSC)
	if err != nil || got != 15 {
		t.Fatalf("expected 15, got %d (%v)", got, err)
	}

	// a second owner instance keeps the existing value
	mustPrepare(t, owner, g)
	if v, _ := g.Get("score"); v.Int() != 15 {
		t.Errorf("re-preparing must not re-run the initializer, score = %d", v.Int())
	}
}

func TestRectifyMismatch(t *testing.T) {
	a := mustCompile(t, "global int level;\nextern double rate;", WithName("a"))
	b := mustCompile(t, "global string level;\nglobal double rate;", WithName("b"))
	err := Rectify(a, b)
	if !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Fatalf("expected TYPE_MISMATCH, got %v", err)
	}

	decls := a.GetDeclarations()
	deps := a.GetDependencies()
	if len(decls) != 1 || decls[0].Key != "level" || !decls[0].Type.Equal(types.Int) {
		t.Errorf("unexpected declarations %v", decls)
	}
	if len(deps) != 1 || deps[0].Key != "rate" || !deps[0].Type.Equal(types.Double) {
		t.Errorf("unexpected dependencies %v", deps)
	}
}

func TestMemberStatePerInstance(t *testing.T) {
	s := mustCompile(t, "int counter;\nint Next() { counter++; return counter; }")
	first := mustPrepare(t, s, nil)
	second := mustPrepare(t, s, nil)
	ctx := context.Background()

	for i, want := range []int{1, 2, 3} {
		got, err := Call[int](ctx, s, "Next", first)
		if err != nil || got != want {
			t.Fatalf("tests[%d] - expected %d, got %d (%v)", i, want, got, err)
		}
	}
	if got, _ := Call[int](ctx, s, "Next", second); got != 1 {
		t.Errorf("instances must not share members, got %d", got)
	}
	if first.ID() == second.ID() {
		t.Error("instances must have distinct IDs")
	}
}

func TestParamsInvocation(t *testing.T) {
	s := mustCompile(t, `
int Sum(params int[] xs) {
	int total = 0;
	foreach (int x in xs) { total += x; }
	return total;
}
int Three() => Sum(1, 2) + Sum() + Sum(new int[] { 0 });
`)
	sc := mustPrepare(t, s, nil)
	ctx := context.Background()

	tests := []struct {
		args     []any
		expected int
	}{
		{[]any{1, 2, 3}, 6},
		{nil, 0},
		{[]any{[]int{4, 5}}, 9},
	}
	for i, tt := range tests {
		got, err := Call[int](ctx, s, "Sum", sc, tt.args...)
		if err != nil || got != tt.expected {
			t.Fatalf("tests[%d] - expected %d, got %d (%v)", i, tt.expected, got, err)
		}
	}
	if got, err := Call[int](ctx, s, "Three", sc); err != nil || got != 3 {
		t.Errorf("expected 3, got %d (%v)", got, err)
	}
}

func TestCallByID(t *testing.T) {
	s := mustCompile(t, "double Half(int n) => n / 2.0;")
	sc := mustPrepare(t, s, nil)
	sig := s.Functions()[0]

	got, err := CallByID[float64](context.Background(), s, sig.ID, sc, 5)
	if err != nil || got != 2.5 {
		t.Fatalf("expected 2.5, got %v (%v)", got, err)
	}

	again := mustCompile(t, "double Half(int n) => n * 0.5;")
	if again.Functions()[0].ID != sig.ID {
		t.Error("identical signatures must have identical IDs across compilations")
	}

	_, err = CallByID[float64](context.Background(), s, again.Functions()[0].ID, sc, "x", "y")
	if !errors.Is(err, runtime.ErrFunctionNotFound) {
		t.Errorf("expected FUNCTION_NOT_FOUND for wrong arity, got %v", err)
	}
}

func TestResultConversion(t *testing.T) {
	s := mustCompile(t, `
int Seven() => 7;
string Name() => "staircase";
void Nothing() { }
int[] Pair() => new int[] { 1, 2 };
double Ratio() => 4.7;
int Big() => 300;
int Echo(int x) => x;
`)
	sc := mustPrepare(t, s, nil)
	ctx := context.Background()

	if v, err := Call[float64](ctx, s, "Seven", sc); err != nil || v != 7 {
		t.Errorf("int result as float64: got %v (%v)", v, err)
	}
	if v, err := Call[types.Value](ctx, s, "Name", sc); err != nil || v.Str() != "staircase" {
		t.Errorf("raw value result: got %v (%v)", v, err)
	}
	if v, err := Call[[]int](ctx, s, "Pair", sc); err != nil || len(v) != 2 || v[1] != 2 {
		t.Errorf("array result: got %v (%v)", v, err)
	}
	if _, err := Call[string](ctx, s, "Seven", sc); !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH for int as string, got %v", err)
	}
	if _, err := Call[int](ctx, s, "Nothing", sc); !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH for void as int, got %v", err)
	}
	if _, err := Call[any](ctx, s, "Nothing", sc); err != nil {
		t.Errorf("void as any: unexpected error %v", err)
	}
	if _, err := Call[int](ctx, s, "Ratio", sc); !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH for double as int, got %v", err)
	}
	if _, err := Call[int8](ctx, s, "Big", sc); !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH for 300 as int8, got %v", err)
	}
	if v, err := Call[uint16](ctx, s, "Big", sc); err != nil || v != 300 {
		t.Errorf("300 as uint16: got %v (%v)", v, err)
	}
	if _, err := Call[int](ctx, s, "Echo", sc, uint64(1<<63)); !errors.Is(err, runtime.ErrTypeMismatch) {
		t.Errorf("expected TYPE_MISMATCH for an unsigned argument above MaxInt64, got %v", err)
	}
}

func TestRuntimeErrors(t *testing.T) {
	s := mustCompile(t, `
int Div(int a, int b) {
	return a / b;
}
int Deep(int n) => Deep(n + 1);
int At(int i) {
	int[] xs = new int[2];
	return xs[i];
}
int Echo(int x) => x;
int Truncate(double d) => (int)d;
`, WithMaxCallDepth(64))
	sc := mustPrepare(t, s, nil)
	ctx := context.Background()

	tests := []struct {
		function string
		args     []any
		want     error
		line     int
	}{
		{"Div", []any{1, 0}, runtime.ErrDivisionByZero, 3},
		{"Deep", []any{0}, runtime.ErrStackOverflow, 0},
		{"At", []any{5}, runtime.ErrIndexOutOfRange, 8},
		{"Missing", nil, runtime.ErrFunctionNotFound, 0},
		{"Echo", []any{1e30}, runtime.ErrTypeMismatch, 0},
		{"Truncate", []any{-1e19}, runtime.ErrTypeMismatch, 11},
	}
	for i, tt := range tests {
		_, err := Call[int](ctx, s, tt.function, sc, tt.args...)
		if !errors.Is(err, tt.want) {
			t.Fatalf("tests[%d] - %s: expected %v, got %v", i, tt.function, tt.want, err)
		}
		var re *runtime.RuntimeError
		if tt.line > 0 && (!errors.As(err, &re) || re.Line != tt.line) {
			t.Fatalf("tests[%d] - %s: expected line %d, got %v", i, tt.function, tt.line, err)
		}
	}

	if got, err := Call[int](ctx, s, "Div", sc, 9, 3); err != nil || got != 3 {
		t.Errorf("a failed invocation must not poison the instance, got %d (%v)", got, err)
	}
}

func TestPrepareScriptNilGlobal(t *testing.T) {
	s := mustCompile(t, "int x;")
	if _, err := s.PrepareScript(context.Background(), nil); !errors.Is(err, runtime.ErrInvalidState) {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
	if _, err := Call[int](context.Background(), s, "x", nil); !errors.Is(err, runtime.ErrFunctionNotFound) {
		t.Fatalf("expected FUNCTION_NOT_FOUND, got %v", err)
	}
}
