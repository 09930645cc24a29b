package algorithm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/parser"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/hostlib"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/script"
)

const counting = `
int trialCount = 0;
int correctCount = 0;

int Initialize() => 0;

int Step(bool lastTrialCorrect) {
	trialCount++;
	if (lastTrialCorrect) {
		correctCount++;
	}
	return 1;
}

bool End() => trialCount >= 10;

double CalculateThreshold() => clamp(2 * (correctCount - 0.5 * trialCount), 0, trialCount);
`

const legacy = `
int step;
int trials;

void Initialize(int stepValue) {
	step = stepValue;
}

int Step(bool lastTrialCorrect) {
	trials++;
	if (lastTrialCorrect) {
		step++;
	} else {
		step -= 2;
	}
	return step;
}

bool End() => trials >= 4;

double CalculateThreshold() => step / 2.0;
`

func compileWithMath(t *testing.T, source string, mode InitializeMode) (*script.Script, InitializeMode) {
	t.Helper()
	reg, err := hostlib.NewStandardRegistry(hostlib.Options{})
	if err != nil {
		t.Fatalf("NewStandardRegistry: %v", err)
	}
	s, resolved, err := Compile(source, mode, script.WithRegistry(reg))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return s, resolved
}

func TestCountingAlgorithm(t *testing.T) {
	ctx := context.Background()
	s, mode := compileWithMath(t, counting, InitializeAuto)
	if mode != InitializeCurrent {
		t.Fatalf("expected current mode, got %s", mode)
	}
	a, err := New(ctx, s, runtime.NewGlobalRuntimeContext(), mode, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if step, err := a.Initialize(ctx); err != nil || step != 0 {
		t.Fatalf("Initialize = %d (%v)", step, err)
	}
	for i := 0; i < 10; i++ {
		if done, _ := a.End(ctx); done {
			t.Fatalf("End reported true after %d trials", i)
		}
		if _, err := a.Step(ctx, i < 7); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	done, err := a.End(ctx)
	if err != nil || !done {
		t.Fatalf("End = %v (%v)", done, err)
	}
	threshold, err := a.Threshold(ctx)
	if err != nil || threshold != 4 {
		t.Fatalf("CalculateThreshold = %v (%v)", threshold, err)
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s, mode := compileWithMath(t, counting, InitializeAuto)
	a, err := New(ctx, s, runtime.NewGlobalRuntimeContext(), mode)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trials, err := ParseTrials("TTTTTTTFFF FF")
	if err != nil {
		t.Fatalf("ParseTrials: %v", err)
	}
	res, err := a.Run(ctx, trials)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Trials != 10 || !res.Ended || res.Threshold != 4 || len(res.Steps) != 11 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLegacyInitialize(t *testing.T) {
	ctx := context.Background()
	s, mode := compileWithMath(t, legacy, InitializeAuto)
	if mode != InitializeLegacy {
		t.Fatalf("expected legacy mode, got %s", mode)
	}
	a, err := New(ctx, s, runtime.NewGlobalRuntimeContext(), InitializeLegacy, WithInitialStep(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Run(ctx, []bool{true, true, false, true, true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int64{10, 11, 12, 10, 11}
	if len(res.Steps) != len(want) {
		t.Fatalf("expected steps %v, got %v", want, res.Steps)
	}
	for i := range want {
		if res.Steps[i] != want[i] {
			t.Fatalf("expected steps %v, got %v", want, res.Steps)
		}
	}
	if res.Trials != 4 || !res.Ended || res.Threshold != 5.5 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestInitializeDetection(t *testing.T) {
	rest := `
int Step(bool c) => 0;
bool End() => true;
double CalculateThreshold() => 0;
`
	tests := []struct {
		name   string
		source string
		mode   InitializeMode
		want   InitializeMode
		err    error
	}{
		{"current", "int Initialize() => 1;" + rest, InitializeAuto, InitializeCurrent, nil},
		{"legacy", "void Initialize(int s) { }" + rest, InitializeAuto, InitializeLegacy, nil},
		{"both", "int Initialize() => 1;\nvoid Initialize(int s) { }" + rest, InitializeAuto, InitializeAuto, ErrBothInitialize},
		{"neither", rest, InitializeAuto, InitializeAuto, ErrNoInitialize},
		{"both with explicit mode", "int Initialize() => 1;\nvoid Initialize(int s) { }" + rest, InitializeLegacy, InitializeLegacy, nil},
		{"explicit mode missing", "int Initialize() => 1;" + rest, InitializeLegacy, InitializeLegacy, parser.ErrSignatureMismatch},
	}

	for i, tt := range tests {
		_, mode, err := Compile(tt.source, tt.mode)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Fatalf("tests[%d] - %s: expected %v, got %v", i, tt.name, tt.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("tests[%d] - %s: unexpected error %v", i, tt.name, err)
		}
		if mode != tt.want {
			t.Fatalf("tests[%d] - %s: expected %s, got %s", i, tt.name, tt.want, mode)
		}
	}
}

func TestNewChecksSignatures(t *testing.T) {
	s, err := script.New("int Initialize() => 0;")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(context.Background(), s, runtime.NewGlobalRuntimeContext(), InitializeAuto); err == nil {
		t.Error("a script without Step must be rejected")
	}
}

func TestStepTimeout(t *testing.T) {
	source := `
int Initialize() => 0;
int Step(bool c) {
	while (true) { }
	return 0;
}
bool End() => false;
double CalculateThreshold() => 0;
`
	s, mode := compileWithMath(t, source, InitializeCurrent)
	a, err := New(context.Background(), s, runtime.NewGlobalRuntimeContext(), mode, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = a.Step(context.Background(), true)
	if !errors.Is(err, runtime.ErrOperationCancelled) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline cancellation, got %v", err)
	}
}

func TestParseInitializeMode(t *testing.T) {
	tests := []struct {
		input string
		want  InitializeMode
		ok    bool
	}{
		{"", InitializeAuto, true},
		{"auto", InitializeAuto, true},
		{"Current", InitializeCurrent, true},
		{"legacy", InitializeLegacy, true},
		{"sometimes", InitializeAuto, false},
	}
	for i, tt := range tests {
		got, err := ParseInitializeMode(tt.input)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("tests[%d] - ParseInitializeMode(%q) = %s, %v", i, tt.input, got, err)
		}
	}
}

func TestParseTrials(t *testing.T) {
	got, err := ParseTrials("T,f 1 0 y N")
	if err != nil {
		t.Fatalf("ParseTrials: %v", err)
	}
	want := []bool{true, false, true, false, true, false}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if _, err := ParseTrials("TTX"); err == nil {
		t.Error("expected an error for X")
	}
}

func TestProperty_ThresholdMatchesCounts(t *testing.T) {
	s, mode := compileWithMath(t, counting, InitializeAuto)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("threshold is clamp(2*(correct - trials/2), 0, trials)", prop.ForAll(
		func(trials []bool) bool {
			ctx := context.Background()
			a, err := New(ctx, s, runtime.NewGlobalRuntimeContext(), mode)
			if err != nil {
				return false
			}
			res, err := a.Run(ctx, trials)
			if err != nil {
				return false
			}
			correct := 0
			for _, c := range trials[:res.Trials] {
				if c {
					correct++
				}
			}
			want := 2 * (float64(correct) - 0.5*float64(res.Trials))
			want = max(0, min(want, float64(res.Trials)))
			return res.Threshold == want && res.Ended == (res.Trials >= 10)
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
