package hostlib

import (
	"fmt"
	"math"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
)

type mathMember struct {
	free    string
	static  string
	adapter interop.Adapter
}

func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDouble(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int64) int64 { return min(a, b) }
func maxInt(a, b int64) int64 { return max(a, b) }

func mathMembers() []mathMember {
	return []mathMember{
		{"clamp", "Clamp", interop.Func3(clampInt)},
		{"clamp", "Clamp", interop.Func3(clampDouble)},
		{"min", "Min", interop.Func2(minInt)},
		{"min", "Min", interop.Func2(math.Min)},
		{"max", "Max", interop.Func2(maxInt)},
		{"max", "Max", interop.Func2(math.Max)},
		{"abs", "Abs", interop.Func1(absInt)},
		{"abs", "Abs", interop.Func1(math.Abs)},
		{"sqrt", "Sqrt", interop.Func1(math.Sqrt)},
		{"pow", "Pow", interop.Func2(math.Pow)},
		{"floor", "Floor", interop.Func1(math.Floor)},
		{"ceil", "Ceiling", interop.Func1(math.Ceil)},
		// midpoints round to the even neighbour
		{"round", "Round", interop.Func1(math.RoundToEven)},
		{"log", "Log", interop.Func1(math.Log)},
		{"exp", "Exp", interop.Func1(math.Exp)},
	}
}

// RegisterMath adds the numeric helpers both as free functions (clamp, min,
// max, abs, sqrt, pow, floor, ceil, round, log, exp) and as static members
// of the Math type, together with the Math.PI and Math.E constants.
func RegisterMath(reg *interop.Registry) error {
	if _, err := reg.RegisterType("Math"); err != nil {
		return err
	}
	for _, m := range mathMembers() {
		if err := reg.RegisterFunction(m.free, m.adapter); err != nil {
			return fmt.Errorf("math: %s: %w", m.free, err)
		}
		if err := reg.RegisterStatic("Math", m.static, m.adapter); err != nil {
			return fmt.Errorf("math: Math.%s: %w", m.static, err)
		}
	}
	for name, v := range map[string]float64{"PI": math.Pi, "E": math.E} {
		if err := reg.RegisterStaticProperty("Math", name, constant(v)); err != nil {
			return fmt.Errorf("math: Math.%s: %w", name, err)
		}
	}
	return nil
}
