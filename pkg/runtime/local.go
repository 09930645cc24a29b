package runtime

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// FunctionRuntimeContext holds the parameters of one function invocation.
type FunctionRuntimeContext struct {
	parent Context
	locals *valueStore
}

// NewFunctionRuntimeContext binds values to the formal parameters args. The
// counts must agree and every value must be assignable to its parameter.
func NewFunctionRuntimeContext(parent Context, args []types.ArgumentData, values []types.Value) (*FunctionRuntimeContext, error) {
	if len(args) != len(values) {
		return nil, NewRuntimeError(ErrorArgumentCount,
			"expected %d arguments, got %d", len(args), len(values))
	}
	f := &FunctionRuntimeContext{parent: parent, locals: newValueStore()}
	for i, a := range args {
		if err := f.locals.declare(a.Identifier, a.Type, values[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *FunctionRuntimeContext) Parent() Context               { return f.parent }
func (f *FunctionRuntimeContext) Global() *GlobalRuntimeContext { return f.parent.Global() }
func (f *FunctionRuntimeContext) Script() *ScriptRuntimeContext { return f.parent.Script() }
func (f *FunctionRuntimeContext) SearchParent(string) bool      { return true }
func (f *FunctionRuntimeContext) store() *valueStore            { return f.locals }

func (f *FunctionRuntimeContext) Get(key string) (types.Value, error) { return getValue(f, key) }
func (f *FunctionRuntimeContext) Set(key string, v types.Value) error { return setValue(f, key, v) }
func (f *FunctionRuntimeContext) Has(key string) bool                 { return hasValue(f, key) }

func (f *FunctionRuntimeContext) Declare(key string, t types.Type, v types.Value) error {
	return f.locals.declare(key, t, v)
}

// ScopeRuntimeContext is one nested block.
type ScopeRuntimeContext struct {
	parent Context
	locals *valueStore
}

// NewScopeRuntimeContext opens a block scope under parent.
func NewScopeRuntimeContext(parent Context) *ScopeRuntimeContext {
	return &ScopeRuntimeContext{parent: parent, locals: newValueStore()}
}

func (s *ScopeRuntimeContext) Parent() Context               { return s.parent }
func (s *ScopeRuntimeContext) Global() *GlobalRuntimeContext { return s.parent.Global() }
func (s *ScopeRuntimeContext) Script() *ScriptRuntimeContext { return s.parent.Script() }
func (s *ScopeRuntimeContext) SearchParent(string) bool      { return true }
func (s *ScopeRuntimeContext) store() *valueStore            { return s.locals }

func (s *ScopeRuntimeContext) Get(key string) (types.Value, error) { return getValue(s, key) }
func (s *ScopeRuntimeContext) Set(key string, v types.Value) error { return setValue(s, key, v) }
func (s *ScopeRuntimeContext) Has(key string) bool                 { return hasValue(s, key) }

func (s *ScopeRuntimeContext) Declare(key string, t types.Type, v types.Value) error {
	return s.locals.declare(key, t, v)
}
