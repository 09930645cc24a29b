package types

import "errors"

var (
	// ErrNoOverload is returned when no candidate accepts the arguments.
	ErrNoOverload = errors.New("no matching overload")
	// ErrAmbiguous is returned when more than one candidate is equally good.
	ErrAmbiguous = errors.New("ambiguous overload")
)

// ActualArgument describes one argument at a call site.
type ActualArgument struct {
	Type Type
	Mode ArgumentMode
}

// Match is the outcome of overload resolution.
type Match struct {
	// Index into the candidate list.
	Index int
	// Expanded is set when trailing arguments are packed into a params array.
	Expanded bool
	// Loose is set when at least one argument needs a runtime conversion
	// outside of widening.
	Loose bool
}

type relation func(from, to Type) bool

// Resolve selects the overload for a call. Candidates whose argument types are
// all widening-assignable are preferred; among them the one needing the
// fewest widenings wins. Without such a candidate exactly one loosely
// matching candidate must exist.
func Resolve(candidates []FunctionSignature, args []ActualArgument) (Match, error) {
	best, bestCost, tie := -1, 0, false
	bestExpanded := false
	for i, sig := range candidates {
		ok, expanded, cost := matchSignature(sig, args, Assignable)
		if !ok {
			continue
		}
		// Prefer the normal form over the params-expanded form at equal cost.
		weighted := cost * 2
		if expanded {
			weighted++
		}
		switch {
		case best < 0 || weighted < bestCost:
			best, bestCost, tie, bestExpanded = i, weighted, false, expanded
		case weighted == bestCost:
			tie = true
		}
	}
	if best >= 0 {
		if tie {
			return Match{}, ErrAmbiguous
		}
		return Match{Index: best, Expanded: bestExpanded}, nil
	}

	var loose []Match
	for i, sig := range candidates {
		if ok, expanded, _ := matchSignature(sig, args, LooselyMatches); ok {
			loose = append(loose, Match{Index: i, Expanded: expanded, Loose: true})
		}
	}
	switch len(loose) {
	case 0:
		return Match{}, ErrNoOverload
	case 1:
		return loose[0], nil
	}
	return Match{}, ErrAmbiguous
}

// ParameterTypeAt returns the type an argument at position i must convert to
// under the given match.
func ParameterTypeAt(sig FunctionSignature, i int, expanded bool) Type {
	n := len(sig.Arguments)
	if expanded && i >= n-1 {
		return sig.Arguments[n-1].Type.Elem()
	}
	return sig.Arguments[i].Type
}

func matchSignature(sig FunctionSignature, args []ActualArgument, rel relation) (ok, expanded bool, cost int) {
	params := sig.Arguments
	if len(args) == len(params) {
		if c, ok := matchFixed(params, args, rel); ok {
			return true, false, c
		}
	}
	if !sig.HasParams() || len(args) < len(params)-1 {
		return false, false, 0
	}
	fixed := len(params) - 1
	c, ok := matchFixed(params[:fixed], args[:fixed], rel)
	if !ok {
		return false, false, 0
	}
	elem := params[fixed].Type.Elem()
	for _, a := range args[fixed:] {
		if a.Mode != Standard || !rel(a.Type, elem) {
			return false, false, 0
		}
		if !a.Type.Equal(elem) {
			c++
		}
	}
	return true, true, c
}

func matchFixed(params []ArgumentData, args []ActualArgument, rel relation) (int, bool) {
	cost := 0
	for i, p := range params {
		a := args[i]
		if !modeCompatible(p.Mode, a.Mode) {
			return 0, false
		}
		switch p.Mode {
		case Ref, Out:
			if !a.Type.Equal(p.Type) {
				return 0, false
			}
			continue
		}
		if !rel(a.Type, p.Type) {
			return 0, false
		}
		if !a.Type.Equal(p.Type) {
			cost++
		}
	}
	return cost, true
}

func modeCompatible(param, actual ArgumentMode) bool {
	switch param {
	case Standard, Params:
		return actual == Standard
	case In:
		return actual == Standard || actual == In
	case Ref:
		return actual == Ref || actual == ByReference
	case Out:
		return actual == Out || actual == ByReference
	}
	return false
}
