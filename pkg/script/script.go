// Package script is the host-facing API of the scripting engine: it compiles
// source into an immutable Script, prepares per-instance runtime contexts
// and invokes script functions.
//
// A Script may be shared between goroutines. Each concurrent invocation
// must use its own ScriptRuntimeContext, and invocations that share a
// GlobalRuntimeContext must be serialized by the host.
package script

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/ast"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/compiler/parser"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/logger"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/runtime"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// Script is a compiled script: its declarations and function table.
type Script struct {
	name     string
	program  *parser.Program
	registry *interop.Registry

	functions map[string][]*ast.Function
	byID      map[uuid.UUID]*ast.Function

	log      *slog.Logger
	maxDepth int
}

// Option configures New.
type Option func(*options)

type options struct {
	registry *interop.Registry
	required []types.FunctionSignature
	log      *slog.Logger
	name     string
	maxDepth int
}

// WithRegistry sets the host member registry the script compiles against.
func WithRegistry(reg *interop.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithRequired lists function signatures the script must define.
func WithRequired(sigs ...types.FunctionSignature) Option {
	return func(o *options) { o.required = append(o.required, sigs...) }
}

// WithLogger sets the logger. The default is logger.GetLogger().
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithName names the script in log records.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMaxCallDepth limits script recursion. The default is
// runtime.MaxCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// New compiles source. A compile failure is returned as a
// *parser.ParsingError and no Script is produced.
func New(source string, opts ...Option) (*Script, error) {
	o := options{
		log:      logger.GetLogger(),
		name:     "script",
		maxDepth: runtime.MaxCallDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = interop.NewRegistry()
	}

	program, err := parser.Parse(source, parser.Config{Registry: o.registry, Required: o.required})
	if err != nil {
		o.log.Debug("script compilation failed", "script", o.name, "error", err)
		return nil, err
	}

	s := &Script{
		name:      o.name,
		program:   program,
		registry:  o.registry,
		functions: make(map[string][]*ast.Function),
		byID:      make(map[uuid.UUID]*ast.Function),
		log:       o.log,
		maxDepth:  o.maxDepth,
	}
	for _, fn := range program.Functions {
		s.functions[fn.Signature.Identifier] = append(s.functions[fn.Signature.Identifier], fn)
		s.byID[fn.Signature.ID] = fn
	}
	s.log.Debug("script compiled",
		"script", s.name,
		"functions", len(program.Functions),
		"declarations", len(program.Declarations))
	return s, nil
}

// Name returns the name given by WithName.
func (s *Script) Name() string { return s.name }

// Registry returns the registry the script was compiled against.
func (s *Script) Registry() *interop.Registry { return s.registry }

// HasFunction reports whether any overload named name exists.
func (s *Script) HasFunction(name string) bool {
	return len(s.functions[name]) > 0
}

// HasSignature reports whether a function satisfying sig exists.
func (s *Script) HasSignature(sig types.FunctionSignature) bool {
	for _, fn := range s.functions[sig.Identifier] {
		if fn.Signature.Satisfies(sig) {
			return true
		}
	}
	return false
}

// Functions returns all function signatures in declaration order.
func (s *Script) Functions() []types.FunctionSignature {
	sigs := make([]types.FunctionSignature, len(s.program.Functions))
	for i, fn := range s.program.Functions {
		sigs[i] = fn.Signature
	}
	return sigs
}

// GetFunctionSignature resolves name against argument types using the same
// rules as a call site.
func (s *Script) GetFunctionSignature(name string, argTypes ...types.Type) (types.FunctionSignature, error) {
	actuals := make([]types.ActualArgument, len(argTypes))
	for i, t := range argTypes {
		actuals[i] = types.ActualArgument{Type: t}
	}
	fn, _, err := s.resolve(name, actuals)
	if err != nil {
		return types.FunctionSignature{}, err
	}
	return fn.Signature, nil
}

// GetDeclarations lists the globals this script owns (declared with global).
func (s *Script) GetDeclarations() []types.KeyInfo {
	return s.globals(false)
}

// GetDependencies lists the globals this script expects to exist (declared
// with extern).
func (s *Script) GetDependencies() []types.KeyInfo {
	return s.globals(true)
}

func (s *Script) globals(extern bool) []types.KeyInfo {
	var keys []types.KeyInfo
	for _, d := range s.program.Declarations {
		g, ok := d.(*ast.GlobalDeclaration)
		if !ok || g.Extern != extern {
			continue
		}
		keys = append(keys, types.KeyInfo{Type: g.VarType, Key: g.Name})
	}
	return keys
}

// resolve selects the overload of name for host-supplied arguments.
func (s *Script) resolve(name string, actuals []types.ActualArgument) (*ast.Function, types.Match, error) {
	candidates := s.functions[name]
	if len(candidates) == 0 {
		return nil, types.Match{}, runtime.NewRuntimeError(runtime.ErrorFunctionNotFound,
			"function %s is not defined in %s", name, s.name)
	}
	sigs := make([]types.FunctionSignature, len(candidates))
	for i, fn := range candidates {
		sigs[i] = fn.Signature
	}
	m, err := types.Resolve(sigs, actuals)
	switch {
	case errors.Is(err, types.ErrAmbiguous):
		return nil, types.Match{}, runtime.NewRuntimeError(runtime.ErrorAmbiguousOverload,
			"call %s%s is ambiguous", name, describeActuals(actuals))
	case err != nil:
		return nil, types.Match{}, runtime.NewRuntimeError(runtime.ErrorFunctionNotFound,
			"no overload of %s accepts %s", name, describeActuals(actuals))
	}
	return candidates[m.Index], m, nil
}

func describeActuals(actuals []types.ActualArgument) string {
	parts := make([]string, len(actuals))
	for i, a := range actuals {
		parts[i] = a.Type.String()
		if a.Mode != types.Standard {
			parts[i] = a.Mode.String() + " " + parts[i]
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Rectify checks that two scripts agree on the type of every global key
// both of them declare or depend on. Scripts must be rectified before they
// are prepared against the same GlobalRuntimeContext.
func Rectify(a, b *Script) error {
	theirs := make(map[string]types.Type)
	for _, k := range slices.Concat(b.GetDeclarations(), b.GetDependencies()) {
		theirs[k.Key] = k.Type
	}
	var errs []error
	for _, k := range slices.Concat(a.GetDeclarations(), a.GetDependencies()) {
		t, ok := theirs[k.Key]
		if ok && !t.Equal(k.Type) {
			errs = append(errs, runtime.NewRuntimeError(runtime.ErrorTypeMismatch,
				"global %s is %s in %s but %s in %s", k.Key, k.Type, a.name, t, b.name))
		}
	}
	return errors.Join(errs...)
}
