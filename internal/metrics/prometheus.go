package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Model call results.
const (
	ResultSuccess      = "success"
	ResultRequestError = "request_error"
	ResultDecodeError  = "decode_error"
)

var (
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_model_calls_total",
		Help: "Generative model calls by operation and result.",
	}, []string{"operation", "result"})

	ModelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studio_model_call_duration_seconds",
		Help:    "Latency of generative model calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	}, []string{"operation"})

	FramesSampled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studio_frames_sampled_total",
		Help: "Still frames extracted from uploaded video.",
	})

	FilterRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_filter_renders_total",
		Help: "Filter compositor renders by result.",
	}, []string{"result"})

	DirectorRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_director_renders_total",
		Help: "Storyboard frame renders by outcome (applied, stale, failed).",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studio_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// ObserveModelCall records one model call in Prometheus and, inside Lambda,
// as an EMF line.
func ObserveModelCall(operation, result string, elapsed time.Duration) {
	ModelCalls.WithLabelValues(operation, result).Inc()
	ModelCallDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

	if !InLambda() {
		return
	}
	New(Namespace).
		Dimension("Operation", operation).
		Dimension("Result", result).
		Duration("ModelCallMs", elapsed).
		Count("ModelCallCount").
		Flush()
}
