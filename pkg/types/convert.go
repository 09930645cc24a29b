package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ConversionError reports a value that could not be converted at runtime.
type ConversionError struct {
	From  Type
	To    Type
	Value string
}

func (e *ConversionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("cannot convert %s value %q to %s", e.From, e.Value, e.To)
	}
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// Assignable reports whether a value of type from can be stored in a slot of
// type to without conversion or with an automatic widening (int to double).
func Assignable(from, to Type) bool {
	if from.Equal(to) {
		return true
	}
	return from.kind == KindInt && to.kind == KindDouble
}

// LooselyMatches reports whether from→to is reachable through the explicit
// conversion table. It is a superset of Assignable.
func LooselyMatches(from, to Type) bool {
	if Assignable(from, to) {
		return true
	}
	switch from.kind {
	case KindDouble:
		return to.kind == KindInt || to.kind == KindString
	case KindInt:
		return to.kind == KindString || to.kind == KindBool
	case KindBool:
		return to.kind == KindString || to.kind == KindInt
	case KindString:
		return to.kind == KindInt || to.kind == KindDouble || to.kind == KindBool
	}
	return false
}

// Widen applies an Assignable conversion. It returns the value unchanged when
// the types are identical.
func Widen(v Value, to Type) (Value, error) {
	if v.typ.Equal(to) {
		return v, nil
	}
	if v.typ.kind == KindInt && to.kind == KindDouble {
		return DoubleValue(float64(v.i)), nil
	}
	return Value{}, &ConversionError{From: v.typ, To: to}
}

// Doubles in [minInt64Float, maxInt64Float) truncate to an int64 exactly.
const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// Convert applies any conversion in the table, widening first.
func Convert(v Value, to Type) (Value, error) {
	if Assignable(v.typ, to) {
		return Widen(v, to)
	}
	switch v.typ.kind {
	case KindDouble:
		switch to.kind {
		case KindInt:
			// NaN fails both comparisons, so it is rejected by the negation.
			if !(v.d >= minInt64Float && v.d < maxInt64Float) {
				return Value{}, &ConversionError{From: v.typ, To: to, Value: v.String()}
			}
			return IntValue(int64(v.d)), nil
		case KindString:
			return StringValue(v.String()), nil
		}
	case KindInt:
		switch to.kind {
		case KindString:
			return StringValue(v.String()), nil
		case KindBool:
			return BoolValue(v.i != 0), nil
		}
	case KindBool:
		switch to.kind {
		case KindString:
			return StringValue(v.String()), nil
		case KindInt:
			if v.b {
				return IntValue(1), nil
			}
			return IntValue(0), nil
		}
	case KindString:
		text := strings.TrimSpace(v.s)
		switch to.kind {
		case KindInt:
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return Value{}, &ConversionError{From: v.typ, To: to, Value: v.s}
			}
			return IntValue(n), nil
		case KindDouble:
			d, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return Value{}, &ConversionError{From: v.typ, To: to, Value: v.s}
			}
			return DoubleValue(d), nil
		case KindBool:
			b, err := strconv.ParseBool(strings.ToLower(text))
			if err != nil {
				return Value{}, &ConversionError{From: v.typ, To: to, Value: v.s}
			}
			return BoolValue(b), nil
		}
	}
	return Value{}, &ConversionError{From: v.typ, To: to}
}

// BinaryNumericType returns the result type of an arithmetic operator applied
// to two numeric operand types.
func BinaryNumericType(a, b Type) Type {
	if a.kind == KindInt && b.kind == KindInt {
		return Int
	}
	return Double
}
