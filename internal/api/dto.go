package api

import (
	"time"

	"github.com/eugenenazirov/bin-packer/internal/packing"
	"github.com/eugenenazirov/bin-packer/internal/storage"
)

type saveConfigRequest struct {
	Name string `json:"name"`
	packing.RawRequest
}

// BinBody is the wire shape of one packed bin.
type BinBody struct {
	BinID       int      `json:"bin_id"`
	Items       []int    `json:"items"`
	ItemWeights []int    `json:"item_weights"`
	ItemLabels  []string `json:"item_labels"`
	TotalWeight int      `json:"total_weight"`
	Capacity    int      `json:"capacity"`
	FillRatio   float64  `json:"fill_ratio"`
}

// SkippedBody is the wire shape of an item left out of every bin.
type SkippedBody struct {
	Index  int    `json:"index"`
	Weight int    `json:"weight"`
	Label  string `json:"label"`
}

// ResultBody is the wire shape of a strategy result, shared by the HTTP API
// and the offline CLI.
type ResultBody struct {
	Objective     string        `json:"objective"`
	SortMethod    string        `json:"sort_method"`
	Bins          []BinBody     `json:"bins"`
	BinCount      int           `json:"bin_count"`
	TotalWeight   int           `json:"total_weight"`
	InputWeight   int           `json:"input_weight"`
	PlacedCount   int           `json:"placed_count"`
	SkippedItems  []SkippedBody `json:"skipped_items"`
	SkippedWeight int           `json:"skipped_weight"`
	AvgFillRatio  float64       `json:"avg_fill_ratio"`
	Warning       string        `json:"warning,omitempty"`
}

type solveResponse struct {
	Success bool `json:"success"`
	ResultBody
	CalculationTimeMs int64 `json:"calculation_time_ms"`
}

type compareEntry struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*ResultBody
}

type compareResponse struct {
	Success           bool                    `json:"success"`
	SortMethod        string                  `json:"sort_method"`
	Results           map[string]compareEntry `json:"results"`
	CalculationTimeMs int64                   `json:"calculation_time_ms"`
}

type configsResponse struct {
	Configs []storage.SavedConfig `json:"configs"`
	Count   int                   `json:"count"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewResultBody converts a solver result into its wire shape.
func NewResultBody(res *packing.Result) ResultBody {
	body := ResultBody{
		Objective:     string(res.Objective),
		SortMethod:    string(res.SortMethod),
		Bins:          make([]BinBody, 0, len(res.Bins)),
		BinCount:      res.BinCount,
		TotalWeight:   res.TotalWeight,
		InputWeight:   res.InputWeight,
		PlacedCount:   res.PlacedCount,
		SkippedItems:  make([]SkippedBody, 0, len(res.SkippedItems)),
		SkippedWeight: res.SkippedWeight,
		AvgFillRatio:  res.AverageFillRatio,
		Warning:       res.Warning,
	}
	for _, bin := range res.Bins {
		body.Bins = append(body.Bins, BinBody{
			BinID:       bin.ID,
			Items:       bin.Items,
			ItemWeights: bin.ItemWeights,
			ItemLabels:  bin.ItemLabels,
			TotalWeight: bin.TotalWeight,
			Capacity:    bin.Capacity,
			FillRatio:   bin.FillRatio,
		})
	}
	for _, item := range res.SkippedItems {
		body.SkippedItems = append(body.SkippedItems, SkippedBody{
			Index:  item.Index,
			Weight: item.Weight,
			Label:  item.Label,
		})
	}
	return body
}
