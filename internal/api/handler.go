package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/eugenenazirov/bin-packer/internal/metrics"
	"github.com/eugenenazirov/bin-packer/internal/packing"
	"github.com/eugenenazirov/bin-packer/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultMaxItems     = 10_000
	maxRequestBodyBytes = 1 << 20
)

// Handler wires solver and storage dependencies into HTTP handlers.
type Handler struct {
	solver  packing.Solver
	storage storage.Storage

	clock    func() time.Time
	maxItems int
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMaxItems caps the number of items accepted in one request. Zero or
// negative values keep the default.
func WithMaxItems(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxItems = n
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(solver packing.Solver, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		solver:  solver,
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		maxItems: defaultMaxItems,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.decodePackingRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := h.solver.Solve(raw)
	elapsed := time.Since(start)
	metrics.ObserveDuration("solve", elapsed)

	if err != nil {
		metrics.RecordRejected("solve", objectiveLabel(raw.Objective))
		writeSolverError(w, err)
		return
	}
	metrics.RecordRun("solve", string(result.Objective), result.BinCount, len(result.SkippedItems), nil)

	resp := solveResponse{
		Success:           true,
		ResultBody:        NewResultBody(result),
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.decodePackingRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	comparison, err := h.solver.Compare(raw)
	elapsed := time.Since(start)
	metrics.ObserveDuration("compare", elapsed)

	if err != nil {
		metrics.RecordRejected("compare", objectiveLabel(raw.Objective))
		writeSolverError(w, err)
		return
	}

	results := make(map[string]compareEntry, len(comparison.Results))
	for _, objective := range packing.Objectives() {
		outcome, found := comparison.Results[objective]
		if !found {
			outcome = packing.Outcome{Err: fmt.Errorf("%w %q", packing.ErrUnknownStrategy, objective)}
		}
		if !outcome.Succeeded() {
			metrics.RecordRun("compare", string(objective), 0, 0, outcome.Err)
			results[string(objective)] = compareEntry{Success: false, Error: outcomeError(outcome)}
			continue
		}
		res := outcome.Result
		metrics.RecordRun("compare", string(objective), res.BinCount, len(res.SkippedItems), nil)
		body := NewResultBody(res)
		results[string(objective)] = compareEntry{Success: true, ResultBody: &body}
	}

	resp := compareResponse{
		Success:           true,
		SortMethod:        string(comparison.SortMethod),
		Results:           results,
		CalculationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.withinItemLimit(w, len(req.Weights)) {
		return
	}

	if _, err := packing.ValidateForComparison(req.RawRequest); err != nil {
		writeSolverError(w, err)
		return
	}

	saved, err := h.storage.SaveConfig(req.Name, req.RawRequest)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, "Invalid configuration", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	_ = r
	configs, err := h.storage.ListConfigs()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, configsResponse{Configs: configs, Count: len(configs)})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.storage.GetConfig(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrConfigNotFound) {
			writeError(w, http.StatusNotFound, "Not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) decodePackingRequest(w http.ResponseWriter, r *http.Request) (packing.RawRequest, bool) {
	var raw packing.RawRequest
	if !decodeJSON(w, r, &raw) {
		return raw, false
	}
	if !h.withinItemLimit(w, len(raw.Weights)) {
		return raw, false
	}
	return raw, true
}

func (h *Handler) withinItemLimit(w http.ResponseWriter, n int) bool {
	if n <= h.maxItems {
		return true
	}
	writeError(w, http.StatusRequestEntityTooLarge, "Too many items",
		fmt.Sprintf("requests are limited to %d items, got %d", h.maxItems, n),
		"Split the order into smaller batches")
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Invalid request", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return false
	}
	return true
}

func writeSolverError(w http.ResponseWriter, err error) {
	var vErr *packing.ValidationError
	if errors.As(err, &vErr) {
		resp := errorResponse{
			Error:   "Invalid request",
			Details: vErr.Error(),
			Field:   vErr.Field,
		}
		if errors.Is(err, packing.ErrInvalidBinCount) {
			resp.Suggestion = "Set bin_count to the number of bins to balance across"
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	if errors.Is(err, packing.ErrInvalidBinCount) {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error(),
			"Set bin_count to the number of bins to balance across")
		return
	}
	writeInternalError(w, err)
}

func outcomeError(o packing.Outcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return "no result"
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

// objectiveLabel keeps the objective metric label within the known set.
func objectiveLabel(requested string) string {
	objective := packing.Objective(strings.TrimSpace(requested))
	if objective == "" {
		return string(packing.ObjectiveMinBins)
	}
	if slices.Contains(packing.Objectives(), objective) {
		return string(objective)
	}
	return "unknown"
}
