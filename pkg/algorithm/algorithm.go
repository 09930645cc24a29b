// Package algorithm drives adaptive-algorithm scripts. An algorithm script
// defines Initialize, Step, End and CalculateThreshold; the host calls
// Initialize once, Step after every trial until End reports true, and then
// reads the threshold.
package algorithm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/logger"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/script"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// InitializeMode selects the Initialize entry point.
type InitializeMode int

const (
	// InitializeAuto picks whichever Initialize the script defines.
	InitializeAuto InitializeMode = iota
	// InitializeCurrent is int Initialize(), returning the first step value.
	InitializeCurrent
	// InitializeLegacy is void Initialize(int stepValue); the host supplies
	// the first step value.
	InitializeLegacy
)

func (m InitializeMode) String() string {
	switch m {
	case InitializeAuto:
		return "auto"
	case InitializeCurrent:
		return "current"
	case InitializeLegacy:
		return "legacy"
	}
	return fmt.Sprintf("InitializeMode(%d)", int(m))
}

// ParseInitializeMode maps "auto", "current" and "legacy" to a mode.
func ParseInitializeMode(s string) (InitializeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return InitializeAuto, nil
	case "current":
		return InitializeCurrent, nil
	case "legacy":
		return InitializeLegacy, nil
	}
	return InitializeAuto, fmt.Errorf("invalid initialize mode: %s", s)
}

// Entry point signatures.
var (
	CurrentInitialize = types.NewFunctionSignature("Initialize", types.Int)
	LegacyInitialize  = types.NewFunctionSignature("Initialize", types.Void,
		types.ArgumentData{Identifier: "stepValue", Type: types.Int})
	StepSignature = types.NewFunctionSignature("Step", types.Int,
		types.ArgumentData{Identifier: "lastTrialCorrect", Type: types.Bool})
	EndSignature       = types.NewFunctionSignature("End", types.Bool)
	ThresholdSignature = types.NewFunctionSignature("CalculateThreshold", types.Double)
)

var (
	// ErrNoInitialize is returned when a script defines neither Initialize.
	ErrNoInitialize = errors.New("script defines no Initialize entry point")
	// ErrBothInitialize is returned in auto mode when a script defines both.
	ErrBothInitialize = errors.New("script defines both the current and the legacy Initialize")
)

// RequiredSignatures lists the signatures a script must define in mode.
// Auto mode leaves Initialize out; DetectInitializeMode checks it.
func RequiredSignatures(mode InitializeMode) []types.FunctionSignature {
	sigs := []types.FunctionSignature{StepSignature, EndSignature, ThresholdSignature}
	switch mode {
	case InitializeCurrent:
		sigs = append(sigs, CurrentInitialize)
	case InitializeLegacy:
		sigs = append(sigs, LegacyInitialize)
	}
	return sigs
}

// DetectInitializeMode reports which Initialize s defines.
func DetectInitializeMode(s *script.Script) (InitializeMode, error) {
	current := s.HasSignature(CurrentInitialize)
	legacy := s.HasSignature(LegacyInitialize)
	switch {
	case current && legacy:
		return InitializeAuto, ErrBothInitialize
	case current:
		return InitializeCurrent, nil
	case legacy:
		return InitializeLegacy, nil
	}
	return InitializeAuto, ErrNoInitialize
}

// Compile compiles source as an algorithm script and resolves mode.
func Compile(source string, mode InitializeMode, opts ...script.Option) (*script.Script, InitializeMode, error) {
	opts = append(opts, script.WithRequired(RequiredSignatures(mode)...))
	s, err := script.New(source, opts...)
	if err != nil {
		return nil, mode, err
	}
	if mode == InitializeAuto {
		if mode, err = DetectInitializeMode(s); err != nil {
			return nil, mode, err
		}
	}
	return s, mode, nil
}

// Algorithm is one prepared run of an algorithm script.
type Algorithm struct {
	script      *script.Script
	rc          *runtime.ScriptRuntimeContext
	mode        InitializeMode
	timeout     time.Duration
	initialStep int64
	log         *slog.Logger
}

// Option configures an Algorithm.
type Option func(*Algorithm)

// WithTimeout bounds every entry point call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Algorithm) { a.timeout = d }
}

// WithInitialStep sets the step value passed to a legacy Initialize.
func WithInitialStep(step int64) Option {
	return func(a *Algorithm) { a.initialStep = step }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Algorithm) { a.log = log }
}

// New prepares s against g. An auto mode is resolved by detection; an
// explicit mode must match what the script defines.
func New(ctx context.Context, s *script.Script, g *runtime.GlobalRuntimeContext, mode InitializeMode, opts ...Option) (*Algorithm, error) {
	a := &Algorithm{script: s, mode: mode, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(a)
	}
	for _, sig := range RequiredSignatures(mode) {
		if !s.HasSignature(sig) {
			return nil, fmt.Errorf("algorithm %s: missing %s", s.Name(), sig)
		}
	}
	if mode == InitializeAuto {
		detected, err := DetectInitializeMode(s)
		if err != nil {
			return nil, fmt.Errorf("algorithm %s: %w", s.Name(), err)
		}
		a.mode = detected
	}
	rc, err := s.PrepareScript(ctx, g)
	if err != nil {
		return nil, err
	}
	a.rc = rc
	a.log.Debug("Algorithm prepared", "script", s.Name(), "mode", a.mode)
	return a, nil
}

// Mode returns the resolved Initialize mode.
func (a *Algorithm) Mode() InitializeMode { return a.mode }

// Context returns the script instance the algorithm runs in.
func (a *Algorithm) Context() *runtime.ScriptRuntimeContext { return a.rc }

func (a *Algorithm) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}

// Initialize runs the Initialize entry point and returns the first step
// value.
func (a *Algorithm) Initialize(ctx context.Context) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	if a.mode == InitializeLegacy {
		if err := a.script.ExecuteFunction(ctx, LegacyInitialize.Identifier, a.rc, a.initialStep); err != nil {
			return 0, err
		}
		return a.initialStep, nil
	}
	return script.Call[int64](ctx, a.script, CurrentInitialize.Identifier, a.rc)
}

// Step reports a trial outcome and returns the next step value.
func (a *Algorithm) Step(ctx context.Context, correct bool) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	return script.Call[int64](ctx, a.script, StepSignature.Identifier, a.rc, correct)
}

// End reports whether the algorithm has finished.
func (a *Algorithm) End(ctx context.Context) (bool, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	return script.Call[bool](ctx, a.script, EndSignature.Identifier, a.rc)
}

// Threshold returns the estimated threshold.
func (a *Algorithm) Threshold(ctx context.Context) (float64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	return script.Call[float64](ctx, a.script, ThresholdSignature.Identifier, a.rc)
}

// Result summarizes Run.
type Result struct {
	Steps     []int64 // step value after Initialize and after each trial
	Trials    int     // trials consumed before End reported true
	Ended     bool
	Threshold float64
}

// Run initializes the algorithm and feeds it trials until End reports true
// or the trials run out.
func (a *Algorithm) Run(ctx context.Context, trials []bool) (Result, error) {
	var res Result
	step, err := a.Initialize(ctx)
	if err != nil {
		return res, fmt.Errorf("Initialize: %w", err)
	}
	res.Steps = append(res.Steps, step)
	for _, correct := range trials {
		if res.Ended, err = a.End(ctx); err != nil {
			return res, fmt.Errorf("End: %w", err)
		}
		if res.Ended {
			break
		}
		if step, err = a.Step(ctx, correct); err != nil {
			return res, fmt.Errorf("Step %d: %w", res.Trials+1, err)
		}
		res.Trials++
		res.Steps = append(res.Steps, step)
	}
	if res.Ended, err = a.End(ctx); err != nil {
		return res, fmt.Errorf("End: %w", err)
	}
	if res.Threshold, err = a.Threshold(ctx); err != nil {
		return res, fmt.Errorf("CalculateThreshold: %w", err)
	}
	a.log.Debug("Algorithm run finished", "trials", res.Trials, "ended", res.Ended, "threshold", res.Threshold)
	return res, nil
}

// ParseTrials reads a trial sequence such as "TTFTF" or "1101". T, Y and 1
// are correct trials; F, N and 0 are incorrect. Spaces and commas are
// ignored.
func ParseTrials(s string) ([]bool, error) {
	var trials []bool
	for i, r := range s {
		switch r {
		case 'T', 't', 'Y', 'y', '1':
			trials = append(trials, true)
		case 'F', 'f', 'N', 'n', '0':
			trials = append(trials, false)
		case ' ', ',':
		default:
			return nil, fmt.Errorf("invalid trial %q at offset %d", r, i)
		}
	}
	return trials, nil
}
