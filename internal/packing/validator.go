package packing

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxItemWeight bounds item weights and bin capacity so that weight sums over any
// accepted request stay well inside int.
const MaxItemWeight = math.MaxInt32

var errMissing = errors.New("missing value")

// Validate normalizes a raw request for a single solve.
func Validate(raw RawRequest) (Request, error) {
	return validate(raw, false)
}

// ValidateForComparison normalizes a raw request for Compare. A missing or bad
// bin count is not fatal here: it only fails the balance_bins entry.
func ValidateForComparison(raw RawRequest) (Request, error) {
	return validate(raw, true)
}

func validate(raw RawRequest, comparison bool) (Request, error) {
	if len(raw.Weights) == 0 {
		return Request{}, invalid("weights", ErrInvalidWeights, "at least one weight is required")
	}
	weights := make([]int, len(raw.Weights))
	for i, w := range raw.Weights {
		v, err := parseInt(w)
		if err != nil || v <= 0 {
			return Request{}, invalid("weights", ErrInvalidWeights,
				"weight at position %d must be a positive integer, got %q", i+1, w.String())
		}
		if v > MaxItemWeight {
			return Request{}, invalid("weights", ErrInvalidWeights,
				"weight at position %d exceeds %d", i+1, MaxItemWeight)
		}
		weights[i] = v
	}

	capacity, err := parseInt(raw.BinCapacity)
	if err != nil || capacity <= 0 {
		return Request{}, invalid("bin_capacity", ErrInvalidCapacity,
			"bin capacity must be a positive integer, got %q", raw.BinCapacity.String())
	}
	if capacity > MaxItemWeight {
		return Request{}, invalid("bin_capacity", ErrInvalidCapacity,
			"bin capacity exceeds %d", MaxItemWeight)
	}

	objective := Objective(strings.TrimSpace(raw.Objective))
	if objective == "" {
		objective = ObjectiveMinBins
	}
	if !objective.valid() {
		return Request{}, invalid("objective", ErrInvalidObjective,
			"unrecognized objective %q", raw.Objective)
	}

	minItems, minItemsDefaulted := defaultMinItems(objective), true
	if v, err := parseInt(raw.MinItemsPerBin); err == nil {
		if v < 0 {
			return Request{}, invalid("min_items_per_bin", ErrInvalidMinItems,
				"must be zero or greater, got %d", v)
		}
		minItems, minItemsDefaulted = v, false
	} else if !errors.Is(err, errMissing) {
		return Request{}, invalid("min_items_per_bin", ErrInvalidMinItems,
			"must be an integer, got %q", raw.MinItemsPerBin.String())
	}

	binCount := 0
	if v, err := parseInt(raw.BinCount); err == nil && v > 0 {
		binCount = v
	} else if objective == ObjectiveBalanceBins && !comparison {
		return Request{}, invalid("bin_count", ErrInvalidBinCount,
			"balance_bins needs a positive bin count, got %q", raw.BinCount.String())
	}

	sortMethod := SortMethod(strings.TrimSpace(raw.SortMethod))
	if sortMethod == "" {
		sortMethod = SortNone
	}
	if !sortMethod.valid() {
		return Request{}, invalid("sort_method", ErrInvalidSortMethod,
			"unrecognized sort method %q", raw.SortMethod)
	}

	maxBins := 0
	if v, err := parseInt(raw.MaxBins); err == nil {
		if v < 0 {
			return Request{}, invalid("max_bins", ErrInvalidMaxBins, "must be zero or greater, got %d", v)
		}
		maxBins = v
	} else if !errors.Is(err, errMissing) {
		return Request{}, invalid("max_bins", ErrInvalidMaxBins,
			"must be an integer, got %q", raw.MaxBins.String())
	}

	var seed *uint64
	if s := strings.TrimSpace(raw.Seed.String()); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Request{}, invalid("seed", ErrInvalidSeed, "must be an integer, got %q", s)
		}
		u := uint64(v)
		seed = &u
	}

	return Request{
		Items:          buildItems(weights, raw.ItemLabels),
		BinCapacity:    capacity,
		Objective:      objective,
		MinItemsPerBin: minItems,
		SortMethod:     sortMethod,
		BinCount:       binCount,
		MaxBins:        maxBins,
		Seed:           seed,

		minItemsDefaulted: minItemsDefaulted,
	}, nil
}

// defaultMinItems is the per-bin minimum used when the request names none.
func defaultMinItems(objective Objective) int {
	if objective == ObjectiveBalanceBins {
		return 1
	}
	return 0
}

func buildItems(weights []int, labels []string) []Item {
	items := make([]Item, len(weights))
	for i, w := range weights {
		label := ""
		if i < len(labels) {
			label = strings.TrimSpace(labels[i])
		}
		if label == "" {
			label = defaultLabel(i)
		}
		items[i] = Item{Index: i, Weight: w, Label: label}
	}
	return items
}

// parseInt accepts integral values written either as integers or as floats
// with no fractional part ("4" or "4.0").
func parseInt(n json.Number) (int, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return 0, errMissing
	}
	if v, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}
