package packing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemsOf(weights ...int) []Item {
	items := make([]Item, len(weights))
	for i, w := range weights {
		items[i] = Item{Index: i, Weight: w, Label: defaultLabel(i)}
	}
	return items
}

func indices(items []Item) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.Index
	}
	return out
}

func TestOrder(t *testing.T) {
	t.Parallel()

	items := itemsOf(4, 8, 4, 3, 8)

	tests := []struct {
		name   string
		method SortMethod
		want   []int
	}{
		{name: "none keeps input order", method: SortNone, want: []int{0, 1, 2, 3, 4}},
		{name: "asc is stable", method: SortAsc, want: []int{3, 0, 2, 1, 4}},
		{name: "desc is stable", method: SortDesc, want: []int{1, 4, 0, 2, 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Order(items, tc.method, nil)
			assert.Equal(t, tc.want, indices(got))
		})
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	items := itemsOf(1, 5, 3)
	_ = Order(items, SortDesc, nil)
	_ = Order(items, SortRandom, NewSeededSource(7))

	assert.Equal(t, []int{0, 1, 2}, indices(items))
	assert.Equal(t, 1, items[0].Weight)
}

func TestOrderRandomIsReproducibleWithSeed(t *testing.T) {
	t.Parallel()

	items := itemsOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	first := Order(items, SortRandom, NewSeededSource(42))
	second := Order(items, SortRandom, NewSeededSource(42))
	assert.Equal(t, indices(first), indices(second))

	require.Len(t, first, len(items))
	assert.ElementsMatch(t, indices(items), indices(first))
}

func TestOrderRandomWithoutSourceIsAPermutation(t *testing.T) {
	t.Parallel()

	items := itemsOf(9, 8, 7, 6)
	got := Order(items, SortRandom, nil)
	assert.ElementsMatch(t, indices(items), indices(got))
}
