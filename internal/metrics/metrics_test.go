package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/configs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Middleware(mux)

	before := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "GET /api/configs/{id}", "404"))

	req := httptest.NewRequest(http.MethodGet, "/api/configs/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	after := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "GET /api/configs/{id}", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordRun(t *testing.T) {
	success := SolvesTotal.WithLabelValues("solve", "min_bins", "success")
	failure := SolvesTotal.WithLabelValues("compare", "balance_bins", "error")
	unplaced := UnplacedItemsTotal.WithLabelValues("min_bins")

	s0, f0, u0 := testutil.ToFloat64(success), testutil.ToFloat64(failure), testutil.ToFloat64(unplaced)

	RecordRun("solve", "min_bins", 3, 2, nil)
	RecordRun("compare", "balance_bins", 0, 0, errors.New("no bins"))

	assert.Equal(t, s0+1, testutil.ToFloat64(success))
	assert.Equal(t, f0+1, testutil.ToFloat64(failure))
	assert.Equal(t, u0+2, testutil.ToFloat64(unplaced))
}

func TestRecordRejected(t *testing.T) {
	rejected := SolvesTotal.WithLabelValues("solve", "unknown", "rejected")
	before := testutil.ToFloat64(rejected)

	RecordRejected("solve", "unknown")

	assert.Equal(t, before+1, testutil.ToFloat64(rejected))
}

func TestHandlerExposesSolverMetrics(t *testing.T) {
	ObserveDuration("solve", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "binpack_solve_duration_seconds"))
}
