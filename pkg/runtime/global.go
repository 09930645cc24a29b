package runtime

import (
	"sort"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// GlobalRuntimeContext is the root of the chain. It owns the variable store
// shared by every script prepared against it, and the return-value slot used
// to carry a function result across context boundaries.
//
// It performs no locking: hosts that run functions against the same global
// context from several goroutines must serialize those calls themselves.
type GlobalRuntimeContext struct {
	values      *valueStore
	returnValue types.Value
	hasReturn   bool
}

// NewGlobalRuntimeContext creates an empty global context.
func NewGlobalRuntimeContext() *GlobalRuntimeContext {
	return &GlobalRuntimeContext{values: newValueStore()}
}

func (g *GlobalRuntimeContext) Parent() Context               { return nil }
func (g *GlobalRuntimeContext) Global() *GlobalRuntimeContext { return g }
func (g *GlobalRuntimeContext) Script() *ScriptRuntimeContext { return nil }
func (g *GlobalRuntimeContext) SearchParent(string) bool      { return false }
func (g *GlobalRuntimeContext) store() *valueStore            { return g.values }

func (g *GlobalRuntimeContext) Get(key string) (types.Value, error) { return getValue(g, key) }
func (g *GlobalRuntimeContext) Set(key string, v types.Value) error { return setValue(g, key, v) }
func (g *GlobalRuntimeContext) Has(key string) bool                 { return hasValue(g, key) }

// Declare creates a global. Hosts use it to seed values that scripts then
// reference with extern declarations.
func (g *GlobalRuntimeContext) Declare(key string, t types.Type, v types.Value) error {
	return g.values.declare(key, t, v)
}

// Lookup returns the binding for key, if any.
func (g *GlobalRuntimeContext) Lookup(key string) (ScriptValue, bool) {
	sv, ok := g.values.get(key)
	if !ok {
		return ScriptValue{}, false
	}
	return *sv, true
}

// Keys returns the sorted keys of all globals.
func (g *GlobalRuntimeContext) Keys() []string {
	keys := g.values.keys()
	sort.Strings(keys)
	return keys
}

// PushReturnValue stashes a function result.
func (g *GlobalRuntimeContext) PushReturnValue(v types.Value) {
	g.returnValue = v
	g.hasReturn = true
}

// PopReturnValue takes the stashed result, clearing the slot.
func (g *GlobalRuntimeContext) PopReturnValue() (types.Value, bool) {
	v, ok := g.returnValue, g.hasReturn
	g.returnValue = types.Value{}
	g.hasReturn = false
	return v, ok
}
