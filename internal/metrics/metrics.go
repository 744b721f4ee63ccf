// Package metrics provides Prometheus metrics collection for the solver service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, route, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, route, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// SolvesTotal counts strategy runs by objective and outcome.
	SolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binpack_solves_total",
			Help: "Total number of strategy runs",
		},
		[]string{"mode", "objective", "status"},
	)

	// SolveDuration tracks how long solve and compare calls take.
	SolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "binpack_solve_duration_seconds",
			Help:    "Solve and compare duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"mode"},
	)

	// BinsOpened observes how many bins a successful run produced.
	BinsOpened = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "binpack_bins_opened",
			Help:    "Number of bins in successful strategy results",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"objective"},
	)

	// UnplacedItemsTotal counts items a strategy could not place.
	UnplacedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "binpack_unplaced_items_total",
			Help: "Total number of items left out of any bin",
		},
		[]string{"objective"},
	)
)

// Middleware collects HTTP metrics. It labels by the matched ServeMux pattern
// to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		statusCode := strconv.Itoa(rec.status)

		HTTPRequestDuration.WithLabelValues(r.Method, route, statusCode).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(r.Method, route, statusCode).Inc()
	})
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDuration records the time spent in a solve or compare call.
func ObserveDuration(mode string, d time.Duration) {
	SolveDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordRun records the outcome of one strategy run.
func RecordRun(mode, objective string, bins, unplaced int, err error) {
	if err != nil {
		SolvesTotal.WithLabelValues(mode, objective, "error").Inc()
		return
	}
	SolvesTotal.WithLabelValues(mode, objective, "success").Inc()
	BinsOpened.WithLabelValues(objective).Observe(float64(bins))
	if unplaced > 0 {
		UnplacedItemsTotal.WithLabelValues(objective).Add(float64(unplaced))
	}
}

// RecordRejected counts a request the solver refused before any strategy ran.
func RecordRejected(mode, objective string) {
	SolvesTotal.WithLabelValues(mode, objective, "rejected").Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
