// Package types defines the static type model of the scripting language:
// value types, the tagged runtime value, the conversion table, function
// signatures and overload resolution.
package types

import "strings"

// Kind is the discriminator of a Type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindHost
)

var kindNames = [...]string{
	KindVoid:   "void",
	KindBool:   "bool",
	KindInt:    "int",
	KindDouble: "double",
	KindString: "string",
	KindArray:  "array",
	KindHost:   "host",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is a static value type. The zero Type is void.
type Type struct {
	kind Kind
	elem *Type
	name string
}

// Built-in types.
var (
	Void   = Type{kind: KindVoid}
	Bool   = Type{kind: KindBool}
	Int    = Type{kind: KindInt}
	Double = Type{kind: KindDouble}
	String = Type{kind: KindString}
)

// ArrayOf returns the array type with the given element type.
func ArrayOf(elem Type) Type {
	e := elem
	return Type{kind: KindArray, elem: &e}
}

// Host returns the opaque host handle type with the given registered name.
func Host(name string) Type {
	return Type{kind: KindHost, name: name}
}

// Kind returns the type's discriminator.
func (t Type) Kind() Kind { return t.kind }

// Elem returns the element type of an array type and void otherwise.
func (t Type) Elem() Type {
	if t.kind != KindArray || t.elem == nil {
		return Void
	}
	return *t.elem
}

// Name returns the host type name, or the String form for other kinds.
func (t Type) Name() string {
	if t.kind == KindHost {
		return t.name
	}
	return t.String()
}

// IsVoid reports whether t is void.
func (t Type) IsVoid() bool { return t.kind == KindVoid }

// IsNumeric reports whether t is int or double.
func (t Type) IsNumeric() bool { return t.kind == KindInt || t.kind == KindDouble }

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool { return t.kind == KindArray }

// Equal reports structural type identity.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindArray:
		return t.Elem().Equal(o.Elem())
	case KindHost:
		return t.name == o.name
	}
	return true
}

// String renders the type the way it is written in source.
func (t Type) String() string {
	switch t.kind {
	case KindArray:
		return t.Elem().String() + "[]"
	case KindHost:
		return t.name
	}
	return t.kind.String()
}

// Primitive looks up a built-in type by its source keyword. "float" is an
// alias of double.
func Primitive(keyword string) (Type, bool) {
	switch keyword {
	case "void":
		return Void, true
	case "bool":
		return Bool, true
	case "int":
		return Int, true
	case "double", "float":
		return Double, true
	case "string":
		return String, true
	}
	return Type{}, false
}

// KeyInfo pairs a global key with its static type. It is used to compare the
// global contracts of scripts that share a GlobalRuntimeContext.
type KeyInfo struct {
	Type Type
	Key  string
}

func (k KeyInfo) String() string {
	return k.Type.String() + " " + k.Key
}

// FormatTypes renders a type list as "(int, double)".
func FormatTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
