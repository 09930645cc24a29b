package types

import (
	"fmt"
	"math"
	"reflect"
)

// FromNative converts a Go value into a script value. Supported inputs are
// bool, all integer kinds, float32/float64, string, slices of those (which
// become arrays) and Value itself.
func FromNative(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case int32:
		return IntValue(int64(v)), nil
	case float64:
		return DoubleValue(v), nil
	case float32:
		return DoubleValue(float64(v)), nil
	case string:
		return StringValue(v), nil
	case nil:
		return Value{}, fmt.Errorf("cannot convert nil to a script value")
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return Value{}, fmt.Errorf("%d overflows int", rv.Uint())
		}
		return IntValue(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return DoubleValue(rv.Float()), nil
	case reflect.Bool:
		return BoolValue(rv.Bool()), nil
	case reflect.String:
		return StringValue(rv.String()), nil
	case reflect.Slice, reflect.Array:
		elem, err := NativeType(rv.Type().Elem())
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i], err = Widen(item, elem)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return ArrayValue(elem, items), nil
	}
	return Value{}, fmt.Errorf("unsupported native type %T", x)
}

// NativeType maps a Go type to the script type FromNative would produce.
func NativeType(t reflect.Type) (Type, error) {
	switch t.Kind() {
	case reflect.Bool:
		return Bool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int, nil
	case reflect.Float32, reflect.Float64:
		return Double, nil
	case reflect.String:
		return String, nil
	case reflect.Slice, reflect.Array:
		elem, err := NativeType(t.Elem())
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	}
	return Type{}, fmt.Errorf("unsupported native type %s", t)
}

// ToNative converts a script value into its natural Go representation:
// bool, int64, float64, string, []any for arrays, the handle for host values
// and nil for void.
func ToNative(v Value) any {
	switch v.typ.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindDouble:
		return v.d
	case KindString:
		return v.s
	case KindArray:
		if v.arr == nil {
			return []any{}
		}
		out := make([]any, len(v.arr.Items))
		for i, item := range v.arr.Items {
			out[i] = ToNative(item)
		}
		return out
	case KindHost:
		return v.host
	}
	return nil
}

// AssignNative stores v into the Go variable dst points to, converting
// between compatible kinds (for example int64 into *int).
func AssignNative(dst any, v Value) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("destination must be a non-nil pointer, got %T", dst)
	}
	return setReflect(rv.Elem(), v)
}

func setReflect(target reflect.Value, v Value) error {
	if target.Type() == reflect.TypeOf(Value{}) {
		target.Set(reflect.ValueOf(v))
		return nil
	}
	switch target.Kind() {
	case reflect.Interface:
		native := ToNative(v)
		if native == nil {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		target.Set(reflect.ValueOf(native))
		return nil
	case reflect.Slice:
		if v.typ.kind != KindArray {
			break
		}
		var items []Value
		if v.arr != nil {
			items = v.arr.Items
		}
		out := reflect.MakeSlice(target.Type(), len(items), len(items))
		for i, item := range items {
			if err := setReflect(out.Index(i), item); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		target.Set(out)
		return nil
	}
	if kindFamily(target.Kind()) == 1 {
		return setNumber(target, v)
	}
	native := ToNative(v)
	if native == nil {
		return fmt.Errorf("cannot store %s into %s", v.typ, target.Type())
	}
	nv := reflect.ValueOf(native)
	if !nv.Type().ConvertibleTo(target.Type()) || !sameFamily(nv.Kind(), target.Kind()) {
		return fmt.Errorf("cannot store %s into %s", v.typ, target.Type())
	}
	target.Set(nv.Convert(target.Type()))
	return nil
}

// setNumber stores an int or double into a Go numeric variable. Ints may
// widen into floats; doubles never narrow into integers, and values that do
// not fit the target are rejected.
func setNumber(target reflect.Value, v Value) error {
	switch v.typ.kind {
	case KindInt:
		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if target.OverflowInt(v.i) {
				return fmt.Errorf("%d overflows %s", v.i, target.Type())
			}
			target.SetInt(v.i)
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if v.i < 0 || target.OverflowUint(uint64(v.i)) {
				return fmt.Errorf("%d overflows %s", v.i, target.Type())
			}
			target.SetUint(uint64(v.i))
			return nil
		case reflect.Float32, reflect.Float64:
			target.SetFloat(float64(v.i))
			return nil
		}
	case KindDouble:
		switch target.Kind() {
		case reflect.Float32, reflect.Float64:
			if target.OverflowFloat(v.d) {
				return fmt.Errorf("%g overflows %s", v.d, target.Type())
			}
			target.SetFloat(v.d)
			return nil
		}
	}
	return fmt.Errorf("cannot store %s into %s", v.typ, target.Type())
}

// sameFamily keeps reflect conversions within a kind family; reflect would
// otherwise happily turn an int into a one-rune string.
func sameFamily(a, b reflect.Kind) bool {
	return kindFamily(a) == kindFamily(b)
}

func kindFamily(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	}
	return 4 + int(k)
}
