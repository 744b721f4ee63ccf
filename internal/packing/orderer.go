package packing

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// Order returns the items in the order a strategy should consume them. The
// input slice is left untouched. rng is only consulted for SortRandom and
// may be nil otherwise.
func Order(items []Item, method SortMethod, rng *rand.Rand) []Item {
	out := slices.Clone(items)
	switch method {
	case SortAsc:
		slices.SortStableFunc(out, byWeight)
	case SortDesc:
		slices.SortStableFunc(out, func(a, b Item) int {
			return cmp.Compare(b.Weight, a.Weight)
		})
	case SortRandom:
		if rng == nil {
			rng = newEntropySource()
		}
		rng.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
	return out
}

// NewSeededSource returns a deterministic random source for SortRandom.
func NewSeededSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newEntropySource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
