package runtime

import (
	"github.com/google/uuid"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// ScriptRuntimeContext is the per-instance state of one prepared script: its
// member variables and the set of global keys it declared. Lookups that miss
// the members only reach the global context for declared globals.
type ScriptRuntimeContext struct {
	global   *GlobalRuntimeContext
	members  *valueStore
	declared map[string]types.Type
	id       uuid.UUID
}

// NewScriptRuntimeContext creates an empty instance bound to g.
func NewScriptRuntimeContext(g *GlobalRuntimeContext) *ScriptRuntimeContext {
	return &ScriptRuntimeContext{
		global:   g,
		members:  newValueStore(),
		declared: make(map[string]types.Type),
		id:       uuid.New(),
	}
}

// ID identifies this instance in logs.
func (s *ScriptRuntimeContext) ID() uuid.UUID { return s.id }

func (s *ScriptRuntimeContext) Parent() Context               { return s.global }
func (s *ScriptRuntimeContext) Global() *GlobalRuntimeContext { return s.global }
func (s *ScriptRuntimeContext) Script() *ScriptRuntimeContext { return s }
func (s *ScriptRuntimeContext) store() *valueStore            { return s.members }

func (s *ScriptRuntimeContext) SearchParent(key string) bool {
	_, ok := s.declared[key]
	return ok
}

func (s *ScriptRuntimeContext) Get(key string) (types.Value, error) { return getValue(s, key) }
func (s *ScriptRuntimeContext) Set(key string, v types.Value) error { return setValue(s, key, v) }
func (s *ScriptRuntimeContext) Has(key string) bool                 { return hasValue(s, key) }

// Declare creates a member variable.
func (s *ScriptRuntimeContext) Declare(key string, t types.Type, v types.Value) error {
	return s.members.declare(key, t, v)
}

// DeclareNewGlobal makes key a global of type t visible to this script. When
// the key already exists with the same type the existing value is kept and
// init is not evaluated; a different type is a TypeMismatch.
func (s *ScriptRuntimeContext) DeclareNewGlobal(key string, t types.Type, init func() (types.Value, error)) error {
	if existing, ok := s.global.Lookup(key); ok {
		if !existing.Type.Equal(t) {
			return NewRuntimeError(ErrorTypeMismatch,
				"global %s is already declared as %s, cannot redeclare as %s", key, existing.Type, t)
		}
		s.declared[key] = t
		return nil
	}
	v := types.Zero(t)
	if init != nil {
		var err error
		if v, err = init(); err != nil {
			return err
		}
	}
	if err := s.global.Declare(key, t, v); err != nil {
		return err
	}
	s.declared[key] = t
	return nil
}

// DeclareExistingGlobal binds an extern declaration. The key must already be
// present with exactly type t.
func (s *ScriptRuntimeContext) DeclareExistingGlobal(key string, t types.Type) error {
	existing, ok := s.global.Lookup(key)
	if !ok {
		return NewRuntimeError(ErrorMissingGlobal, "extern global %s %s was not found", t, key)
	}
	if !existing.Type.Equal(t) {
		return NewRuntimeError(ErrorTypeMismatch,
			"extern global %s expected type %s, found %s", key, t, existing.Type)
	}
	s.declared[key] = t
	return nil
}

// DeclaredGlobals returns the globals this instance has bound.
func (s *ScriptRuntimeContext) DeclaredGlobals() []types.KeyInfo {
	out := make([]types.KeyInfo, 0, len(s.declared))
	for k, t := range s.declared {
		out = append(out, types.KeyInfo{Type: t, Key: k})
	}
	return out
}
