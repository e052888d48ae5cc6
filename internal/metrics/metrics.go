// Package metrics exposes Prometheus counters for chat updates, upstream
// calls and rate limiting.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telcal",
		Name:      "updates_total",
		Help:      "Inbound chat updates by kind (text, voice, callback) and outcome",
	}, []string{"kind", "outcome"})

	upstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telcal",
		Name:      "upstream_calls_total",
		Help:      "Calls to the language model, transcription and calendar backends",
	}, []string{"backend", "result"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "telcal",
		Name:      "upstream_call_duration_seconds",
		Help:      "Latency of upstream backend calls",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"backend"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telcal",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-user limiter",
	})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "telcal",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies by route pattern and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	maintenanceRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "telcal",
		Name:      "maintenance_rejected_total",
		Help:      "Updates answered with the maintenance notice",
	})
)

// Backend labels.
const (
	BackendLLM        = "llm"
	BackendTranscribe = "transcribe"
	BackendCalendar   = "calendar"
)

// RecordUpdate counts one handled update.
func RecordUpdate(kind, outcome string) {
	updatesTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveUpstream records the result and latency of one backend call.
func ObserveUpstream(backend string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	upstreamCalls.WithLabelValues(backend, result).Inc()
	upstreamDuration.WithLabelValues(backend).Observe(time.Since(started).Seconds())
}

// RecordRateLimited counts one throttled request.
func RecordRateLimited() {
	rateLimited.Inc()
}

// RecordMaintenanceRejected counts one update refused by the maintenance gate.
func RecordMaintenanceRejected() {
	maintenanceRejected.Inc()
}

// ObserveHTTP records one served HTTP request. route is the router pattern,
// not the raw path.
func ObserveHTTP(method, route string, status int, started time.Time) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(started).Seconds())
}
