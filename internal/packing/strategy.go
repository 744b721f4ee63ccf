package packing

import (
	"cmp"
	"fmt"
	"slices"
)

// Strategy packs an ordered item sequence into bins of a fixed capacity.
type Strategy interface {
	Objective() Objective
	Pack(items []Item, capacity int, constraints Constraints) (Packing, error)
}

// DefaultStrategies returns one strategy per objective.
func DefaultStrategies() map[Objective]Strategy {
	return map[Objective]Strategy{
		ObjectiveMinBins:     MinBins{},
		ObjectiveMaxWeight:   MaxWeight{},
		ObjectiveMaxItems:    MaxItems{},
		ObjectiveBalanceBins: BalanceBins{},
	}
}

// MinBins is a best-fit heuristic: each item goes to the open bin with the
// least remaining capacity that still holds it, and a new bin is opened only
// when none does.
type MinBins struct{}

func (MinBins) Objective() Objective { return ObjectiveMinBins }

func (MinBins) Pack(items []Item, capacity int, _ Constraints) (Packing, error) {
	var p Packing
	for _, item := range items {
		if item.Weight > capacity {
			p.Skipped = append(p.Skipped, item)
			continue
		}

		var best *Bin
		for _, bin := range p.Bins {
			if !bin.fits(item) {
				continue
			}
			if best == nil || bin.Remaining() < best.Remaining() {
				best = bin
			}
		}
		if best == nil {
			best = p.openBin(capacity)
		}
		best.add(item)
	}
	return p, nil
}

// MaxWeight is a first-fit heuristic that opens bins lazily and, once the bin
// budget is spent, drops items that fit nowhere instead of opening more bins.
type MaxWeight struct{}

func (MaxWeight) Objective() Objective { return ObjectiveMaxWeight }

func (MaxWeight) Pack(items []Item, capacity int, c Constraints) (Packing, error) {
	return firstFit(items, capacity, c.MaxBins), nil
}

// MaxItems favours the number of packed items over their weight. It always
// re-sorts its input by ascending weight before first-fit placement, whatever
// order the caller chose; no other strategy overrides the caller's order.
type MaxItems struct{}

func (MaxItems) Objective() Objective { return ObjectiveMaxItems }

func (MaxItems) Pack(items []Item, capacity int, c Constraints) (Packing, error) {
	ordered := items
	if !slices.IsSortedFunc(items, byWeight) {
		ordered = slices.Clone(items)
		slices.SortStableFunc(ordered, byWeight)
	}
	return firstFit(ordered, capacity, c.MaxBins), nil
}

// BalanceBins spreads items over a fixed number of bins created upfront,
// always feeding the lightest bin that still has room.
type BalanceBins struct{}

func (BalanceBins) Objective() Objective { return ObjectiveBalanceBins }

func (BalanceBins) Pack(items []Item, capacity int, c Constraints) (Packing, error) {
	if c.BinCount <= 0 {
		return Packing{}, fmt.Errorf("%w: balance_bins needs at least one bin, got %d", ErrInvalidBinCount, c.BinCount)
	}

	var p Packing
	for i := 0; i < c.BinCount; i++ {
		p.openBin(capacity)
	}

	for _, item := range items {
		var target *Bin
		for _, bin := range p.Bins {
			if !bin.fits(item) {
				continue
			}
			if target == nil || bin.TotalWeight < target.TotalWeight {
				target = bin
			}
		}
		if target == nil {
			p.Skipped = append(p.Skipped, item)
			continue
		}
		target.add(item)
	}
	return p, nil
}

func firstFit(items []Item, capacity, maxBins int) Packing {
	var p Packing
	for _, item := range items {
		if item.Weight > capacity {
			p.Skipped = append(p.Skipped, item)
			continue
		}

		var target *Bin
		for _, bin := range p.Bins {
			if bin.fits(item) {
				target = bin
				break
			}
		}
		if target == nil {
			if maxBins > 0 && len(p.Bins) >= maxBins {
				p.Skipped = append(p.Skipped, item)
				continue
			}
			target = p.openBin(capacity)
		}
		target.add(item)
	}
	return p
}

func (p *Packing) openBin(capacity int) *Bin {
	bin := &Bin{ID: len(p.Bins), Capacity: capacity}
	p.Bins = append(p.Bins, bin)
	return bin
}

func byWeight(a, b Item) int {
	return cmp.Compare(a.Weight, b.Weight)
}
