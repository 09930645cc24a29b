// Package interop provides the member registry through which host code
// exposes functions, methods and properties to scripts.
//
// Members are keyed by receiver type name, a static flag and the member
// name. Free functions use the empty receiver. Scripts resolve calls against
// the registry at parse time; nothing is discovered by reflection at run time.
package interop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

var (
	// ErrUnknownMember is returned when no member of the given name exists.
	ErrUnknownMember = errors.New("unknown member")
	// ErrUnknownType is returned for unregistered host type names.
	ErrUnknownType = errors.New("unknown type")
	// ErrDuplicateMember is returned when a member with the same argument
	// types is registered twice.
	ErrDuplicateMember = errors.New("duplicate member")
)

// Invoker performs a host call. recv is the receiver for instance members
// and the zero Value for static members and free functions.
type Invoker func(ctx context.Context, recv types.Value, args []types.Value) (types.Value, error)

// Adapter is one callable overload of a host method.
type Adapter struct {
	Params []types.ArgumentData
	Return types.Type
	Invoke Invoker

	err error
}

// Property is a host property. Set is nil for read-only properties.
type Property struct {
	Type types.Type
	Get  func(ctx context.Context, recv types.Value) (types.Value, error)
	Set  func(ctx context.Context, recv types.Value, v types.Value) error
}

type memberKey struct {
	receiver string
	static   bool
	name     string
}

func (k memberKey) String() string {
	if k.receiver == "" {
		return k.name
	}
	return k.receiver + "." + k.name
}

// Registry is the member table. It is safe for concurrent use; registration
// normally completes before any script is compiled against it.
type Registry struct {
	mu         sync.RWMutex
	hostTypes  map[string]types.Type
	methods    map[memberKey][]Adapter
	properties map[memberKey]Property
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hostTypes:  make(map[string]types.Type),
		methods:    make(map[memberKey][]Adapter),
		properties: make(map[memberKey]Property),
	}
}

// RegisterType declares a named host type. Static-only namespaces such as
// Math are registered the same way. Registering a name twice returns the
// existing type.
func (r *Registry) RegisterType(name string) (types.Type, error) {
	if name == "" {
		return types.Type{}, fmt.Errorf("host type name must not be empty")
	}
	if _, ok := types.Primitive(name); ok {
		return types.Type{}, fmt.Errorf("host type name %q collides with a built-in type", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.hostTypes[name]; ok {
		return t, nil
	}
	t := types.Host(name)
	r.hostTypes[name] = t
	return t, nil
}

// LookupType returns a registered host type.
func (r *Registry) LookupType(name string) (types.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.hostTypes[name]
	if !ok {
		return types.Type{}, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// HasType reports whether name is a registered host type.
func (r *Registry) HasType(name string) bool {
	_, err := r.LookupType(name)
	return err == nil
}

// RegisterFunction adds a free function overload.
func (r *Registry) RegisterFunction(name string, a Adapter) error {
	return r.addMethod(memberKey{name: name, static: true}, a)
}

// RegisterStatic adds a static method overload on a registered type.
func (r *Registry) RegisterStatic(typeName, name string, a Adapter) error {
	if !r.HasType(typeName) {
		return fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return r.addMethod(memberKey{receiver: typeName, static: true, name: name}, a)
}

// RegisterMethod adds an instance method overload. The receiver may be a
// registered host type or a built-in type name such as "string".
func (r *Registry) RegisterMethod(receiver types.Type, name string, a Adapter) error {
	if receiver.IsVoid() {
		return fmt.Errorf("cannot register method %s on void", name)
	}
	return r.addMethod(memberKey{receiver: receiver.String(), name: name}, a)
}

// RegisterProperty adds an instance property.
func (r *Registry) RegisterProperty(receiver types.Type, name string, p Property) error {
	return r.addProperty(memberKey{receiver: receiver.String(), name: name}, p)
}

// RegisterStaticProperty adds a static property on a registered type.
func (r *Registry) RegisterStaticProperty(typeName, name string, p Property) error {
	if !r.HasType(typeName) {
		return fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	return r.addProperty(memberKey{receiver: typeName, static: true, name: name}, p)
}

func (r *Registry) addMethod(key memberKey, a Adapter) error {
	if a.err != nil {
		return fmt.Errorf("register %s: %w", key, a.err)
	}
	if a.Invoke == nil {
		return fmt.Errorf("register %s: adapter has no invoker", key)
	}
	for i, p := range a.Params {
		if p.Mode != types.Standard && p.Mode != types.Params {
			return fmt.Errorf("register %s: host parameter %d cannot use %s mode", key, i, p.Mode)
		}
		if p.Mode == types.Params && (i != len(a.Params)-1 || !p.Type.IsArray()) {
			return fmt.Errorf("register %s: params must be the trailing array parameter", key)
		}
	}
	sig := a.signature(key.name)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.methods[key] {
		if existing.signature(key.name).SameArguments(sig) {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, sig)
		}
	}
	r.methods[key] = append(r.methods[key], a)
	return nil
}

func (r *Registry) addProperty(key memberKey, p Property) error {
	if p.Get == nil {
		return fmt.Errorf("register %s: property has no getter", key)
	}
	if p.Type.IsVoid() {
		return fmt.Errorf("register %s: property cannot be void", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMember, key)
	}
	r.properties[key] = p
	return nil
}

// Signature returns the adapter's signature under the given member name.
func (a Adapter) Signature(name string) types.FunctionSignature {
	return a.signature(name)
}

func (a Adapter) signature(name string) types.FunctionSignature {
	return types.NewFunctionSignature(name, a.Return, a.Params...)
}

// Resolved is the outcome of a method lookup.
type Resolved struct {
	Adapter Adapter
	Match   types.Match
}

// ResolveMethod picks the overload of receiver.name that accepts args.
// Receiver is a type name, or empty for free functions.
func (r *Registry) ResolveMethod(receiver string, static bool, name string, args []types.ActualArgument) (Resolved, error) {
	key := memberKey{receiver: receiver, static: static, name: name}
	r.mu.RLock()
	overloads := r.methods[key]
	r.mu.RUnlock()
	if len(overloads) == 0 {
		return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownMember, key)
	}
	sigs := make([]types.FunctionSignature, len(overloads))
	for i, a := range overloads {
		sigs[i] = a.signature(name)
	}
	m, err := types.Resolve(sigs, args)
	if err != nil {
		return Resolved{}, fmt.Errorf("%s%s: %w", key, formatActuals(args), err)
	}
	return Resolved{Adapter: overloads[m.Index], Match: m}, nil
}

// LookupProperty returns a registered property.
func (r *Registry) LookupProperty(receiver string, static bool, name string) (Property, error) {
	key := memberKey{receiver: receiver, static: static, name: name}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.properties[key]
	if !ok {
		return Property{}, fmt.Errorf("%w: %s", ErrUnknownMember, key)
	}
	return p, nil
}

// HasMethod reports whether any overload of receiver.name exists.
func (r *Registry) HasMethod(receiver string, static bool, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.methods[memberKey{receiver: receiver, static: static, name: name}]) > 0
}

// HasProperty reports whether receiver.name is a registered property.
func (r *Registry) HasProperty(receiver string, static bool, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.properties[memberKey{receiver: receiver, static: static, name: name}]
	return ok
}

// Members lists the registered member names, sorted, for diagnostics.
func (r *Registry) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range r.methods {
		seen[k.String()] = struct{}{}
	}
	for k := range r.properties {
		seen[k.String()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func formatActuals(args []types.ActualArgument) string {
	ts := make([]types.Type, len(args))
	for i, a := range args {
		ts[i] = a.Type
	}
	return types.FormatTypes(ts)
}
