package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Array is the shared backing store of an array value. Array values have
// reference semantics: copies of a Value share the same *Array.
type Array struct {
	Elem  Type
	Items []Value
}

// Value is a tagged variant holding one script value. Only the field matching
// the type's kind is meaningful.
type Value struct {
	typ  Type
	b    bool
	i    int64
	d    float64
	s    string
	arr  *Array
	host any
}

// VoidValue is returned by void functions.
var VoidValue = Value{}

func BoolValue(b bool) Value      { return Value{typ: Bool, b: b} }
func IntValue(i int64) Value      { return Value{typ: Int, i: i} }
func DoubleValue(d float64) Value { return Value{typ: Double, d: d} }
func StringValue(s string) Value  { return Value{typ: String, s: s} }

// ArrayValue wraps items into a new array of the given element type.
func ArrayValue(elem Type, items []Value) Value {
	return Value{typ: ArrayOf(elem), arr: &Array{Elem: elem, Items: items}}
}

// HostValue wraps an opaque host handle.
func HostValue(t Type, handle any) Value {
	return Value{typ: t, host: handle}
}

// Zero returns the default value of t. Arrays default to an empty array so
// scripts never observe a null reference.
func Zero(t Type) Value {
	switch t.kind {
	case KindArray:
		return ArrayValue(t.Elem(), nil)
	case KindHost:
		return Value{typ: t}
	}
	return Value{typ: t}
}

func (v Value) Type() Type      { return v.typ }
func (v Value) Bool() bool      { return v.b }
func (v Value) Int() int64      { return v.i }
func (v Value) Double() float64 { return v.d }
func (v Value) Str() string     { return v.s }
func (v Value) Array() *Array   { return v.arr }
func (v Value) Host() any       { return v.host }

// Float returns the numeric value as float64 for int and double values.
func (v Value) Float() float64 {
	if v.typ.kind == KindInt {
		return float64(v.i)
	}
	return v.d
}

// Equal implements the language's == operator. Numbers compare by value
// across int and double, arrays and host handles by identity.
func (v Value) Equal(o Value) bool {
	if v.typ.IsNumeric() && o.typ.IsNumeric() {
		if v.typ.kind == KindInt && o.typ.kind == KindInt {
			return v.i == o.i
		}
		return v.Float() == o.Float()
	}
	if !v.typ.Equal(o.typ) {
		return false
	}
	switch v.typ.kind {
	case KindVoid:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindArray:
		return v.arr == o.arr
	case KindHost:
		return v.host == o.host
	}
	return false
}

// String formats the value for display and string conversion.
func (v Value) String() string {
	switch v.typ.kind {
	case KindVoid:
		return "void"
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindString:
		return v.s
	case KindArray:
		if v.arr == nil {
			return "[]"
		}
		parts := make([]string, len(v.arr.Items))
		for i, item := range v.arr.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindHost:
		if v.host == nil {
			return v.typ.name + "(null)"
		}
		return fmt.Sprintf("%v", v.host)
	}
	return "?"
}
