package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysesTotal         *prometheus.CounterVec
	analysisFailuresTotal *prometheus.CounterVec
	analysisDuration      *prometheus.HistogramVec
	uploadBytes           *prometheus.HistogramVec
	cleanupFailuresTotal  *prometheus.CounterVec
	llmTokensTotal        *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fa",
			Subsystem: "analysis",
			Name:      "completed_total",
			Help:      "Total completed analyses by file category and outcome.",
		},
		[]string{"service", "category", "outcome"},
	)
	analysisFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fa",
			Subsystem: "analysis",
			Name:      "failures_total",
			Help:      "Total failed analyses by error kind.",
		},
		[]string{"service", "kind"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fa",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "End-to-end analysis duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "category"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fa",
			Subsystem: "analysis",
			Name:      "upload_bytes",
			Help:      "Size of accepted uploads in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service", "category"},
	)
	cleanupFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fa",
			Subsystem: "staging",
			Name:      "cleanup_failures_total",
			Help:      "Staged files that could not be removed.",
		},
		[]string{"service"},
	)
	llmTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fa",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Token usage reported by the model provider by direction.",
		},
		[]string{"service", "operation", "direction", "model"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		analysesTotal,
		analysisFailuresTotal,
		analysisDuration,
		uploadBytes,
		cleanupFailuresTotal,
		llmTokensTotal,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		analysesTotal:         analysesTotal,
		analysisFailuresTotal: analysisFailuresTotal,
		analysisDuration:      analysisDuration,
		uploadBytes:           uploadBytes,
		cleanupFailuresTotal:  cleanupFailuresTotal,
		llmTokensTotal:        llmTokensTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps the path label bounded: unknown paths collapse to one value.
func normalizePath(path string) string {
	switch path {
	case "/healthz", "/metrics", "/v1/file-types", "/v1/analyses", "/v1/history", "/v1/session":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordAnalysis(service, category, outcome string, size int64, duration time.Duration) {
	category = orUnknown(category)
	m.analysesTotal.WithLabelValues(service, category, orUnknown(outcome)).Inc()
	m.analysisDuration.WithLabelValues(service, category).Observe(duration.Seconds())
	if size >= 0 {
		m.uploadBytes.WithLabelValues(service, category).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordAnalysisFailure(service, kind string) {
	m.analysisFailuresTotal.WithLabelValues(service, orUnknown(kind)).Inc()
}

func (m *HTTPServerMetrics) RecordCleanupFailure(service string) {
	m.cleanupFailuresTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordTokenUsage(service, operation, model string, promptTokens, completionTokens int) {
	model = orUnknown(model)
	if promptTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, operation, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.llmTokensTotal.WithLabelValues(service, operation, "out", model).Add(float64(completionTokens))
	}
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
