package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/bin-packer/internal/api"
	"github.com/eugenenazirov/bin-packer/internal/logging"
	"github.com/eugenenazirov/bin-packer/internal/packing"
)

// errHelpShown stops parsing once --help has printed usage.
var errHelpShown = errors.New("help shown")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "binpack: %v\n", err)
		os.Exit(1)
	}
}

// requestFlags are shared by every command and override values read from --config.
type requestFlags struct {
	configFile *string
	weights    *string
	capacity   *string
	sortMethod *string
	minItems   *string
	binCount   *string
	maxBins    *string
	labels     *string
	seed       *string
}

func (f *requestFlags) register(app *kingpin.Application) {
	f.configFile = app.Flag("config", "JSON or YAML file holding a request or a saved configuration").Short('c').ExistingFile()
	f.weights = app.Flag("weights", "Comma-separated item weights").Short('w').String()
	f.capacity = app.Flag("capacity", "Capacity of every bin").Short('C').String()
	f.sortMethod = app.Flag("sort", "Item ordering: none, asc, desc or random").Short('s').String()
	f.minItems = app.Flag("min-items", "Minimum items per bin, reported as a warning when unmet").String()
	f.binCount = app.Flag("bin-count", "Number of bins for balance_bins").String()
	f.maxBins = app.Flag("max-bins", "Bin budget for max_weight and max_items (0 = unlimited)").String()
	f.labels = app.Flag("labels", "Comma-separated item labels").String()
	f.seed = app.Flag("seed", "Seed for the random ordering").String()
}

func (f *requestFlags) request() (packing.RawRequest, error) {
	var req packing.RawRequest
	if *f.configFile != "" {
		loaded, err := loadRequest(*f.configFile)
		if err != nil {
			return req, err
		}
		req = loaded
	}

	if *f.weights != "" {
		req.Weights = nil
		for _, part := range splitList(*f.weights) {
			req.Weights = append(req.Weights, json.Number(part))
		}
	}
	if *f.labels != "" {
		req.ItemLabels = splitList(*f.labels)
	}
	setNumber(&req.BinCapacity, *f.capacity)
	setNumber(&req.MinItemsPerBin, *f.minItems)
	setNumber(&req.BinCount, *f.binCount)
	setNumber(&req.MaxBins, *f.maxBins)
	setNumber(&req.Seed, *f.seed)
	if *f.sortMethod != "" {
		req.SortMethod = *f.sortMethod
	}
	return req, nil
}

func run(args []string, stdout io.Writer) error {
	app := kingpin.New("binpack", "Pack weighted items into fixed-capacity bins")
	jsonOut := app.Flag("json", "Print the result as JSON").Bool()
	logLevel := app.Flag("log-level", "Log level for diagnostics on stderr").Default("warn").String()

	var flags requestFlags
	flags.register(app)

	solveCmd := app.Command("solve", "Pack items for a single objective")
	objective := solveCmd.Flag("objective", "min_bins, max_weight, max_items or balance_bins").Short('o').String()

	compareCmd := app.Command("compare", "Run every objective on the same ordering")
	sequential := compareCmd.Flag("sequential", "Run strategies one after another").Bool()

	// kingpin exits the process after printing usage unless told otherwise.
	var exited bool
	app.Terminate(func(int) { exited = true })
	app.UsageWriter(stdout)
	app.HelpFlag.PreAction(func(ctx *kingpin.ParseContext) error {
		if err := app.UsageForContext(ctx); err != nil {
			return err
		}
		return errHelpShown
	})

	command, err := app.Parse(args)
	switch {
	case errors.Is(err, errHelpShown):
		return nil
	case err != nil:
		return err
	case exited:
		// "help <command>" already wrote its usage.
		return nil
	}

	logger, err := logging.NewConsole(*logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	req, err := flags.request()
	if err != nil {
		return err
	}

	switch command {
	case solveCmd.FullCommand():
		if *objective != "" {
			req.Objective = *objective
		}
		solver := packing.New(packing.WithLogger(logger))
		result, err := solver.Solve(req)
		if err != nil {
			return explain(err)
		}
		if *jsonOut {
			return writeJSON(stdout, api.NewResultBody(result))
		}
		return writeResult(stdout, result)

	case compareCmd.FullCommand():
		solver := packing.New(packing.WithLogger(logger), packing.WithParallelCompare(!*sequential))
		comparison, err := solver.Compare(req)
		if err != nil {
			return explain(err)
		}
		logger.Debug("comparison finished", zap.Int("objectives", len(comparison.Results)))
		if *jsonOut {
			return writeJSON(stdout, comparisonJSON(comparison))
		}
		return writeComparison(stdout, comparison)
	}
	return fmt.Errorf("unknown command %q", command)
}

// loadRequest reads a request file. Saved configurations wrap the request
// under a "request" key; bare requests are accepted as well.
func loadRequest(path string) (packing.RawRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return packing.RawRequest{}, fmt.Errorf("read config: %w", err)
	}

	var file struct {
		Request            *packing.RawRequest `json:"request" yaml:"request"`
		packing.RawRequest `yaml:",inline"`
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return packing.RawRequest{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.Request != nil {
		return *file.Request, nil
	}
	return file.RawRequest, nil
}

func explain(err error) error {
	var vErr *packing.ValidationError
	if errors.As(err, &vErr) {
		return fmt.Errorf("invalid %s: %w", vErr.Field, err)
	}
	return err
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func setNumber(dst *json.Number, raw string) {
	if raw = strings.TrimSpace(raw); raw != "" {
		*dst = json.Number(raw)
	}
}

type compareEntry struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	*api.ResultBody
}

type compareOutput struct {
	SortMethod string                  `json:"sort_method"`
	Results    map[string]compareEntry `json:"results"`
}

func comparisonJSON(c *packing.Comparison) compareOutput {
	out := compareOutput{
		SortMethod: string(c.SortMethod),
		Results:    make(map[string]compareEntry, len(c.Results)),
	}
	for objective, outcome := range c.Results {
		if !outcome.Succeeded() {
			msg := "no result"
			if outcome.Err != nil {
				msg = outcome.Err.Error()
			}
			out.Results[string(objective)] = compareEntry{Error: msg}
			continue
		}
		body := api.NewResultBody(outcome.Result)
		out.Results[string(objective)] = compareEntry{Success: true, ResultBody: &body}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, res *packing.Result) error {
	fmt.Fprintf(w, "objective: %s  sort: %s\n", res.Objective, res.SortMethod)
	fmt.Fprintf(w, "bins: %d  packed: %d/%d  average fill: %.1f%%\n",
		res.BinCount, res.TotalWeight, res.InputWeight, res.AverageFillRatio*100)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BIN\tLOAD\tFILL\tITEMS")
	for _, bin := range res.Bins {
		items := make([]string, 0, len(bin.Items))
		for i, label := range bin.ItemLabels {
			items = append(items, fmt.Sprintf("%s(%d)", label, bin.ItemWeights[i]))
		}
		fmt.Fprintf(tw, "%d\t%d/%d\t%.1f%%\t%s\n",
			bin.ID+1, bin.TotalWeight, bin.Capacity, bin.FillRatio*100, strings.Join(items, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.SkippedItems) > 0 {
		skipped := make([]string, 0, len(res.SkippedItems))
		for _, item := range res.SkippedItems {
			skipped = append(skipped, fmt.Sprintf("%s(%d)", item.Label, item.Weight))
		}
		fmt.Fprintf(w, "skipped: %s\n", strings.Join(skipped, ", "))
	}
	if res.Warning != "" {
		fmt.Fprintf(w, "warning: %s\n", res.Warning)
	}
	return nil
}

func writeComparison(w io.Writer, c *packing.Comparison) error {
	fmt.Fprintf(w, "sort: %s\n", c.SortMethod)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECTIVE\tBINS\tPACKED\tSKIPPED\tAVG FILL\tNOTE")
	for _, objective := range packing.Objectives() {
		outcome := c.Results[objective]
		if !outcome.Succeeded() {
			msg := "no result"
			if outcome.Err != nil {
				msg = outcome.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\terror: %s\n", objective, msg)
			continue
		}
		res := outcome.Result
		fmt.Fprintf(tw, "%s\t%d\t%d/%d\t%d\t%.1f%%\t%s\n",
			objective, res.BinCount, res.TotalWeight, res.InputWeight,
			len(res.SkippedItems), res.AverageFillRatio*100, res.Warning)
	}
	return tw.Flush()
}
