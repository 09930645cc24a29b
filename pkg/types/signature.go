package types

import (
	"strings"

	"github.com/google/uuid"
)

// ArgumentMode is the passing mode of a formal or actual argument.
type ArgumentMode uint8

const (
	Standard ArgumentMode = iota
	In
	Ref
	Out
	Params
	// ByReference is only produced for host-supplied pointers; it satisfies
	// both ref and out parameters.
	ByReference
)

func (m ArgumentMode) String() string {
	switch m {
	case In:
		return "in"
	case Ref:
		return "ref"
	case Out:
		return "out"
	case Params:
		return "params"
	case ByReference:
		return "byref"
	}
	return ""
}

// ArgumentData is one formal parameter.
type ArgumentData struct {
	Identifier string
	Type       Type
	Mode       ArgumentMode
}

func (a ArgumentData) String() string {
	var b strings.Builder
	if a.Mode != Standard {
		b.WriteString(a.Mode.String())
		b.WriteByte(' ')
	}
	b.WriteString(a.Type.String())
	if a.Identifier != "" {
		b.WriteByte(' ')
		b.WriteString(a.Identifier)
	}
	return b.String()
}

// signatureNamespace seeds the name-based UUIDs of function signatures.
var signatureNamespace = uuid.MustParse("6f0c5a8e-3b1d-4c7e-9a52-0d8e4f1b7c39")

// FunctionSignature is a function's external contract. Its ID is derived from
// the identifier and the mode-tagged argument type list, so identical
// signatures get identical IDs across compilations.
type FunctionSignature struct {
	Identifier string
	ReturnType Type
	Arguments  []ArgumentData
	ID         uuid.UUID
}

// NewFunctionSignature builds a signature and computes its ID.
func NewFunctionSignature(identifier string, returnType Type, args ...ArgumentData) FunctionSignature {
	sig := FunctionSignature{
		Identifier: identifier,
		ReturnType: returnType,
		Arguments:  args,
	}
	sig.ID = uuid.NewSHA1(signatureNamespace, []byte(sig.key()))
	return sig
}

// key is the canonical identity text: identifier plus mode-tagged types.
func (s FunctionSignature) key() string {
	var b strings.Builder
	b.WriteString(s.Identifier)
	b.WriteByte('(')
	for i, a := range s.Arguments {
		if i > 0 {
			b.WriteByte(',')
		}
		if a.Mode != Standard {
			b.WriteString(a.Mode.String())
			b.WriteByte(' ')
		}
		b.WriteString(a.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

// ArgumentTypes returns the declared argument types in order.
func (s FunctionSignature) ArgumentTypes() []Type {
	ts := make([]Type, len(s.Arguments))
	for i, a := range s.Arguments {
		ts[i] = a.Type
	}
	return ts
}

// SameArguments reports whether both signatures have identical argument type
// lists. Two functions with the same identifier and SameArguments collide.
func (s FunctionSignature) SameArguments(o FunctionSignature) bool {
	if len(s.Arguments) != len(o.Arguments) {
		return false
	}
	for i := range s.Arguments {
		if !s.Arguments[i].Type.Equal(o.Arguments[i].Type) {
			return false
		}
	}
	return true
}

// Satisfies reports whether s can stand in for the required signature: same
// identifier, return type, argument types and modes.
func (s FunctionSignature) Satisfies(required FunctionSignature) bool {
	if s.Identifier != required.Identifier || !s.ReturnType.Equal(required.ReturnType) {
		return false
	}
	if !s.SameArguments(required) {
		return false
	}
	for i := range s.Arguments {
		if s.Arguments[i].Mode != required.Arguments[i].Mode {
			return false
		}
	}
	return true
}

// HasParams reports whether the trailing argument is a params array.
func (s FunctionSignature) HasParams() bool {
	n := len(s.Arguments)
	return n > 0 && s.Arguments[n-1].Mode == Params
}

// String renders the signature as it would be declared in source.
func (s FunctionSignature) String() string {
	parts := make([]string, len(s.Arguments))
	for i, a := range s.Arguments {
		parts[i] = a.String()
	}
	return s.ReturnType.String() + " " + s.Identifier + "(" + strings.Join(parts, ", ") + ")"
}
