package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "legalrag"

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	rejectedTotal   *prometheus.CounterVec

	pipelineRequestsTotal  *prometheus.CounterVec
	pipelineNoContextTotal *prometheus.CounterVec
	pipelineDocuments      *prometheus.HistogramVec
	pipelineDuration       *prometheus.HistogramVec
	collectionRoutedTotal  *prometheus.CounterVec
	llmErrorsTotal         *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected by traffic control, by reason.",
		},
		[]string{"service", "reason"},
	)
	pipelineRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Total answered legal questions by classified law.",
		},
		[]string{"service", "endpoint", "law"},
	)
	pipelineNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "no_context_total",
			Help:      "Answered questions without any retrieved document.",
		},
		[]string{"service", "endpoint"},
	)
	pipelineDocuments := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "retrieved_documents",
			Help:      "Distribution of retrieved documents per answered question.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"service", "endpoint"},
	)
	pipelineDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"service", "endpoint"},
	)
	collectionRoutedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "collection_routed_total",
			Help:      "Times a collection was selected by the router.",
		},
		[]string{"service", "collection"},
	)
	llmErrorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "error_answers_total",
			Help:      "Answers that carry a language model error text.",
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rejectedTotal,
		pipelineRequestsTotal,
		pipelineNoContextTotal,
		pipelineDocuments,
		pipelineDuration,
		collectionRoutedTotal,
		llmErrorsTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		rejectedTotal:          rejectedTotal,
		pipelineRequestsTotal:  pipelineRequestsTotal,
		pipelineNoContextTotal: pipelineNoContextTotal,
		pipelineDocuments:      pipelineDocuments,
		pipelineDuration:       pipelineDuration,
		collectionRoutedTotal:  collectionRoutedTotal,
		llmErrorsTotal:         llmErrorsTotal,
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

// normalizePath keeps label cardinality bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/"), path == "/healthz", path == "/metrics", path == "/openapi.yaml":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.rejectedTotal.WithLabelValues(service, reason).Inc()
}

// PipelineObservation summarizes one answered question.
type PipelineObservation struct {
	Law           string
	Collections   []string
	DocumentCount int
	LLMError      bool
	Duration      time.Duration
}

func (m *HTTPServerMetrics) RecordPipeline(service, endpoint string, obs PipelineObservation) {
	law := obs.Law
	if law == "" {
		law = "unknown"
	}
	m.pipelineRequestsTotal.WithLabelValues(service, endpoint, law).Inc()
	m.pipelineDocuments.WithLabelValues(service, endpoint).Observe(float64(obs.DocumentCount))
	m.pipelineDuration.WithLabelValues(service, endpoint).Observe(obs.Duration.Seconds())
	if obs.DocumentCount == 0 {
		m.pipelineNoContextTotal.WithLabelValues(service, endpoint).Inc()
	}
	for _, collection := range obs.Collections {
		m.collectionRoutedTotal.WithLabelValues(service, collection).Inc()
	}
	if obs.LLMError {
		m.llmErrorsTotal.WithLabelValues(service, endpoint).Inc()
	}
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

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
