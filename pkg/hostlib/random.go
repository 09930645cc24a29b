package hostlib

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/interop"
	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/types"
)

// generator is the handle behind a script Random value.
type generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newGenerator(seed uint64) *generator {
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns a value in [lo, hi). An empty range yields lo.
func (g *generator) Next(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rnd.Int64N(hi-lo)
}

// NextDouble returns a value in [0, 1).
func (g *generator) NextDouble() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// RegisterRandom adds the Random host type. Random.Create(seed) returns a
// deterministic generator handle with Next(lo, hi) and NextDouble();
// Random.Range(lo, hi) and Random.Value() draw from a shared generator
// seeded with seed.
func RegisterRandom(reg *interop.Registry, seed uint64) error {
	rt, err := reg.RegisterType("Random")
	if err != nil {
		return err
	}
	shared := newGenerator(seed)

	create := interop.Adapter{
		Params: []types.ArgumentData{{Identifier: "seed", Type: types.Int}},
		Return: rt,
		Invoke: func(_ context.Context, _ types.Value, args []types.Value) (types.Value, error) {
			return types.HostValue(rt, newGenerator(uint64(args[0].Int()))), nil
		},
	}
	statics := []struct {
		name    string
		adapter interop.Adapter
	}{
		{"Create", create},
		{"Range", interop.Func2(shared.Next)},
		{"Value", interop.Func0(shared.NextDouble)},
	}
	for _, m := range statics {
		if err := reg.RegisterStatic("Random", m.name, m.adapter); err != nil {
			return fmt.Errorf("random: Random.%s: %w", m.name, err)
		}
	}
	if err := reg.RegisterMethod(rt, "Next", interop.Method2((*generator).Next)); err != nil {
		return fmt.Errorf("random: Next: %w", err)
	}
	if err := reg.RegisterMethod(rt, "NextDouble", interop.Method0((*generator).NextDouble)); err != nil {
		return fmt.Errorf("random: NextDouble: %w", err)
	}
	return nil
}
