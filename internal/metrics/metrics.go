package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// InFlightRequests is the number of requests currently being served,
	// long-lived streams included.
	InFlightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quill_in_flight_requests",
		Help: "Requests currently being served.",
	})

	// StreamDuration tracks wall-clock time of a generation stream per model and outcome.
	StreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_stream_duration_seconds",
		Help:    "Time spent streaming a generation.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"model", "state"})

	// StreamChunks tracks how many chunks a stream consumed before it ended.
	StreamChunks = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_stream_chunks",
		Help:    "Chunks received per generation stream.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"model"})

	// StreamsTotal counts finished streams by terminal state.
	StreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_streams_total",
		Help: "Generation streams by terminal state.",
	}, []string{"state"})

	// StreamErrors counts failed streams by error kind.
	StreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_stream_errors_total",
		Help: "Failed generation streams by error kind.",
	}, []string{"kind"})

	// InputChars tracks the distribution of input text lengths.
	InputChars = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quill_input_chars",
		Help:    "Number of characters in revision text or coding task.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"mode"})

	// ModelListFailures counts model directory lookups that degraded to an empty list.
	ModelListFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_model_list_failures_total",
		Help: "Model listing calls that failed and returned no models.",
	})

	// BackendAvailable tracks whether the configured backend is reachable.
	BackendAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quill_backend_available",
		Help: "Whether the inference backend is available (1) or not (0).",
	}, []string{"backend"})
)
