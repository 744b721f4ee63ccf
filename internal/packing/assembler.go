package packing

import (
	"fmt"
	"strconv"
	"strings"
)

// Assemble turns a strategy's raw bins into the reporting shape. Labels are
// resolved through the request by original item index.
func Assemble(req Request, objective Objective, packing Packing) *Result {
	res := &Result{
		Objective:   objective,
		SortMethod:  req.SortMethod,
		Bins:        make([]BinReport, 0, len(packing.Bins)),
		BinCount:    len(packing.Bins),
		InputWeight: req.TotalWeight(),
	}

	var fillSum float64
	for _, bin := range packing.Bins {
		report := BinReport{
			ID:          bin.ID,
			Capacity:    bin.Capacity,
			Items:       make([]int, 0, len(bin.Items)),
			ItemWeights: make([]int, 0, len(bin.Items)),
			ItemLabels:  make([]string, 0, len(bin.Items)),
			TotalWeight: bin.TotalWeight,
		}
		for _, item := range bin.Items {
			report.Items = append(report.Items, item.Index)
			report.ItemWeights = append(report.ItemWeights, item.Weight)
			report.ItemLabels = append(report.ItemLabels, labelFor(req, item))
		}
		if bin.Capacity > 0 {
			report.FillRatio = float64(bin.TotalWeight) / float64(bin.Capacity)
		}
		fillSum += report.FillRatio
		res.TotalWeight += bin.TotalWeight
		res.PlacedCount += len(bin.Items)
		res.Bins = append(res.Bins, report)
	}
	if len(res.Bins) > 0 {
		res.AverageFillRatio = fillSum / float64(len(res.Bins))
	}

	res.SkippedItems = append([]Item(nil), packing.Skipped...)
	for _, item := range packing.Skipped {
		res.SkippedWeight += item.Weight
	}

	res.Warning = buildWarning(constraintsFor(req, objective).MinItemsPerBin, packing)
	return res
}

func labelFor(req Request, item Item) string {
	if item.Index >= 0 && item.Index < len(req.Items) {
		return req.Items[item.Index].Label
	}
	return defaultLabel(item.Index)
}

func buildWarning(minItems int, packing Packing) string {
	var parts []string

	if n := len(packing.Skipped); n > 0 {
		weight := 0
		for _, item := range packing.Skipped {
			weight += item.Weight
		}
		parts = append(parts, fmt.Sprintf("%d %s could not be packed (total weight %d)",
			n, plural(n, "item", "items"), weight))
	}

	if minItems > 0 {
		var short []string
		for _, bin := range packing.Bins {
			if len(bin.Items) < minItems {
				short = append(short, strconv.Itoa(bin.ID))
			}
		}
		if len(short) > 0 {
			parts = append(parts, fmt.Sprintf("minimum of %d items per bin not satisfiable for %d %s (%s)",
				minItems, len(short), plural(len(short), "bin", "bins"), strings.Join(short, ", ")))
		}
	}

	return strings.Join(parts, "; ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
