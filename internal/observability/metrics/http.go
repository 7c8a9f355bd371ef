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

// HTTPServerMetrics carries the API server's request series plus the
// question-answering and evaluation series. Each server owns its registry
// so tests never collide on the global one.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askTotal          *prometheus.CounterVec
	askSources        *prometheus.HistogramVec
	askNoContextTotal *prometheus.CounterVec
	askDuration       *prometheus.HistogramVec

	evalTotal          *prometheus.CounterVec
	evalScore          *prometheus.HistogramVec
	evalUndefinedTotal *prometheus.CounterVec
	evalDuration       *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bovicare",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bovicare",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bovicare",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bovicare",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total answered questions by rerank mode.",
		},
		[]string{"service", "reranked"},
	)
	askSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bovicare",
			Subsystem: "ask",
			Name:      "sources",
			Help:      "Distribution of context sources per answered question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	askNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bovicare",
			Subsystem: "ask",
			Name:      "no_context_total",
			Help:      "Total questions answered without retrieved context.",
		},
		[]string{"service"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bovicare",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Question pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	evalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bovicare",
			Subsystem: "evaluation",
			Name:      "requests_total",
			Help:      "Total rubric evaluations by category.",
		},
		[]string{"service", "category"},
	)
	evalScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bovicare",
			Subsystem: "evaluation",
			Name:      "overall_score",
			Help:      "Distribution of defined overall rubric scores.",
			Buckets:   []float64{-0.5, -0.25, 0, 0.1, 0.25, 0.4, 0.55, 0.7, 0.85, 1},
		},
		[]string{"service", "category"},
	)
	evalUndefinedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bovicare",
			Subsystem: "evaluation",
			Name:      "undefined_total",
			Help:      "Total evaluations whose rubric had no positive-point items.",
		},
		[]string{"service", "category"},
	)
	evalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bovicare",
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "Rubric evaluation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askTotal,
		askSources,
		askNoContextTotal,
		askDuration,
		evalTotal,
		evalScore,
		evalUndefinedTotal,
		evalDuration,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		askTotal:           askTotal,
		askSources:         askSources,
		askNoContextTotal:  askNoContextTotal,
		askDuration:        askDuration,
		evalTotal:          evalTotal,
		evalScore:          evalScore,
		evalUndefinedTotal: evalUndefinedTotal,
		evalDuration:       evalDuration,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAsk(service string, reranked bool, sourceCount int, duration time.Duration) {
	m.askTotal.WithLabelValues(service, strconv.FormatBool(reranked)).Inc()
	m.askSources.WithLabelValues(service).Observe(float64(sourceCount))
	m.askDuration.WithLabelValues(service).Observe(duration.Seconds())

	if sourceCount == 0 {
		m.askNoContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordEvaluation(service, category string, score float64, undefined bool, duration time.Duration) {
	if category == "" {
		category = "unknown"
	}
	m.evalTotal.WithLabelValues(service, category).Inc()
	m.evalDuration.WithLabelValues(service).Observe(duration.Seconds())

	if undefined {
		m.evalUndefinedTotal.WithLabelValues(service, category).Inc()
		return
	}
	m.evalScore.WithLabelValues(service, category).Observe(score)
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
