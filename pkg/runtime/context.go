package runtime

import (
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// ScriptValue is one stored variable binding. Its Type never changes after
// declaration; assignment replaces the whole ScriptValue.
type ScriptValue struct {
	Type  types.Type
	Key   string
	Value types.Value
}

// Context is one level of the Global → Script → Function → Scope chain.
type Context interface {
	// Parent returns the enclosing context, or nil for the global context.
	Parent() Context
	// Global returns the root of the chain.
	Global() *GlobalRuntimeContext
	// Script returns the owning script instance, or nil for the global context.
	Script() *ScriptRuntimeContext
	// SearchParent reports whether a lookup of key that misses locally may
	// continue in the parent.
	SearchParent(key string) bool

	// Get resolves key through the chain.
	Get(key string) (types.Value, error)
	// Set assigns key through the chain.
	Set(key string, v types.Value) error
	// Has reports whether key resolves through the chain.
	Has(key string) bool
	// Declare creates a new local binding in this context.
	Declare(key string, t types.Type, v types.Value) error

	store() *valueStore
}

// valueStore is the local key→value map of one context.
type valueStore struct {
	values map[string]*ScriptValue
}

func newValueStore() *valueStore {
	return &valueStore{values: make(map[string]*ScriptValue)}
}

func (s *valueStore) get(key string) (*ScriptValue, bool) {
	sv, ok := s.values[key]
	return sv, ok
}

func (s *valueStore) declare(key string, t types.Type, v types.Value) error {
	if _, exists := s.values[key]; exists {
		return NewRuntimeError(ErrorInvalidState, "variable %s already declared in this context", key)
	}
	stored, err := coerce(key, t, v)
	if err != nil {
		return err
	}
	s.values[key] = &ScriptValue{Type: t, Key: key, Value: stored}
	return nil
}

func (s *valueStore) set(sv *ScriptValue, v types.Value) error {
	stored, err := coerce(sv.Key, sv.Type, v)
	if err != nil {
		return err
	}
	s.values[sv.Key] = &ScriptValue{Type: sv.Type, Key: sv.Key, Value: stored}
	return nil
}

func (s *valueStore) keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// coerce stores v as-is when its type is identical and widens when it is
// assignable. Everything else is a type mismatch.
func coerce(key string, t types.Type, v types.Value) (types.Value, error) {
	if v.Type().Equal(t) {
		return v, nil
	}
	if types.Assignable(v.Type(), t) {
		return types.Widen(v, t)
	}
	return types.Value{}, NewRuntimeError(ErrorTypeMismatch,
		"type mismatch: cannot assign %s to %s %s", v.Type(), t, key)
}

// lookup walks the chain honouring each context's SearchParent policy.
func lookup(c Context, key string) (*ScriptValue, Context, bool) {
	for cur := c; cur != nil; cur = cur.Parent() {
		if sv, ok := cur.store().get(key); ok {
			return sv, cur, true
		}
		if !cur.SearchParent(key) {
			return nil, nil, false
		}
	}
	return nil, nil, false
}

func getValue(c Context, key string) (types.Value, error) {
	sv, _, ok := lookup(c, key)
	if !ok {
		return types.Value{}, NewUndefinedVariableError(key)
	}
	return sv.Value, nil
}

func setValue(c Context, key string, v types.Value) error {
	sv, owner, ok := lookup(c, key)
	if !ok {
		return NewUndefinedVariableError(key)
	}
	return owner.store().set(sv, v)
}

func hasValue(c Context, key string) bool {
	_, _, ok := lookup(c, key)
	return ok
}

