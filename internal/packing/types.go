package packing

import (
	"encoding/json"
	"fmt"
)

// Objective selects the packing strategy.
type Objective string

const (
	ObjectiveMinBins     Objective = "min_bins"
	ObjectiveMaxWeight   Objective = "max_weight"
	ObjectiveMaxItems    Objective = "max_items"
	ObjectiveBalanceBins Objective = "balance_bins"
)

// Objectives lists every recognized objective in reporting order.
func Objectives() []Objective {
	return []Objective{ObjectiveMinBins, ObjectiveMaxWeight, ObjectiveMaxItems, ObjectiveBalanceBins}
}

func (o Objective) valid() bool {
	switch o {
	case ObjectiveMinBins, ObjectiveMaxWeight, ObjectiveMaxItems, ObjectiveBalanceBins:
		return true
	}
	return false
}

// SortMethod is the pre-sort policy applied before packing.
type SortMethod string

const (
	SortNone   SortMethod = "none"
	SortAsc    SortMethod = "asc"
	SortDesc   SortMethod = "desc"
	SortRandom SortMethod = "random"
)

func (m SortMethod) valid() bool {
	switch m {
	case SortNone, SortAsc, SortDesc, SortRandom:
		return true
	}
	return false
}

// Item is a single weighted input. Index is its position in the request and
// stays fixed whatever order the item is packed in.
type Item struct {
	Index  int
	Weight int
	Label  string
}

func defaultLabel(index int) string {
	return fmt.Sprintf("Item %d", index+1)
}

// RawRequest is the loosely-typed request handed over by a calling layer.
// Numeric fields keep their textual form so the validator can tell missing,
// fractional and malformed values apart.
type RawRequest struct {
	Weights        []json.Number `json:"weights" yaml:"weights"`
	BinCapacity    json.Number   `json:"bin_capacity" yaml:"bin_capacity"`
	Objective      string        `json:"objective,omitempty" yaml:"objective,omitempty"`
	MinItemsPerBin json.Number   `json:"min_items_per_bin,omitempty" yaml:"min_items_per_bin,omitempty"`
	SortMethod     string        `json:"sort_method,omitempty" yaml:"sort_method,omitempty"`
	BinCount       json.Number   `json:"bin_count,omitempty" yaml:"bin_count,omitempty"`
	MaxBins        json.Number   `json:"max_bins,omitempty" yaml:"max_bins,omitempty"`
	ItemLabels     []string      `json:"item_labels,omitempty" yaml:"item_labels,omitempty"`
	Seed           json.Number   `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Request is a validated packing request.
type Request struct {
	Items          []Item
	BinCapacity    int
	Objective      Objective
	MinItemsPerBin int
	SortMethod     SortMethod
	// BinCount is only meaningful for ObjectiveBalanceBins; zero means unset.
	BinCount int
	// MaxBins caps the bins max_weight and max_items may open; zero means unlimited.
	MaxBins int
	Seed    *uint64

	// minItemsDefaulted is set when MinItemsPerBin came from the objective
	// default, so other objectives in a comparison resolve their own.
	minItemsDefaulted bool
}

// TotalWeight sums the weight of every requested item, placeable or not.
func (r Request) TotalWeight() int {
	total := 0
	for _, item := range r.Items {
		total += item.Weight
	}
	return total
}

// Unplaceable returns the items that can never fit into a bin.
func (r Request) Unplaceable() []Item {
	var out []Item
	for _, item := range r.Items {
		if item.Weight > r.BinCapacity {
			out = append(out, item)
		}
	}
	return out
}

// Constraints carries the per-solve limits a strategy must respect.
type Constraints struct {
	MinItemsPerBin int
	BinCount       int
	MaxBins        int
}

// Bin is a fixed-capacity container filled by a strategy.
type Bin struct {
	ID          int
	Capacity    int
	Items       []Item
	TotalWeight int
}

// Remaining returns the capacity still available in the bin.
func (b *Bin) Remaining() int {
	return b.Capacity - b.TotalWeight
}

func (b *Bin) fits(item Item) bool {
	return item.Weight <= b.Remaining()
}

func (b *Bin) add(item Item) {
	if !b.fits(item) {
		panic(fmt.Sprintf("packing: item %d (weight %d) overflows bin %d (remaining %d)",
			item.Index, item.Weight, b.ID, b.Remaining()))
	}
	b.Items = append(b.Items, item)
	b.TotalWeight += item.Weight
}

// Packing is the raw output of a strategy.
type Packing struct {
	Bins    []*Bin
	Skipped []Item
}

// BinReport is the reporting shape of a single bin.
type BinReport struct {
	ID          int
	Capacity    int
	Items       []int
	ItemWeights []int
	ItemLabels  []string
	TotalWeight int
	FillRatio   float64
}

// Result is a successful solve, possibly with a partial-placement warning.
type Result struct {
	Objective        Objective
	SortMethod       SortMethod
	Bins             []BinReport
	BinCount         int
	TotalWeight      int
	InputWeight      int
	PlacedCount      int
	SkippedItems     []Item
	SkippedWeight    int
	AverageFillRatio float64
	Warning          string
}

// Outcome is one entry of a comparison: either a Result or the error that
// prevented it.
type Outcome struct {
	Result *Result
	Err    error
}

// Succeeded reports whether the strategy produced a result.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Comparison holds one outcome per objective.
type Comparison struct {
	SortMethod SortMethod
	Results    map[Objective]Outcome
}
