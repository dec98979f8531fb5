package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RetrievalMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalsTotal   *prometheus.CounterVec
	gateModeTotal     *prometheus.CounterVec
	noContextTotal    *prometheus.CounterVec
	retrievedResults  *prometheus.HistogramVec
	retrievalDuration *prometheus.HistogramVec
	strategyHitsTotal *prometheus.CounterVec
}

func NewRetrievalMetrics(service string) *RetrievalMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mre",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mre",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mre",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mre",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total completed retrieval requests.",
		},
		[]string{"service"},
	)
	gateModeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mre",
			Subsystem: "retrieval",
			Name:      "gate_mode_total",
			Help:      "Total retrievals by context gate decision.",
		},
		[]string{"service", "mode"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mre",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total retrievals that produced no results.",
		},
		[]string{"service"},
	)
	retrievedResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mre",
			Subsystem: "retrieval",
			Name:      "retrieved_results",
			Help:      "Distribution of fused results per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mre",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	strategyHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mre",
			Subsystem: "retrieval",
			Name:      "strategy_hits_total",
			Help:      "Total pruned hits contributed per strategy.",
		},
		[]string{"service", "strategy"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalsTotal,
		gateModeTotal,
		noContextTotal,
		retrievedResults,
		retrievalDuration,
		strategyHitsTotal,
	)

	return &RetrievalMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		retrievalsTotal:   retrievalsTotal,
		gateModeTotal:     gateModeTotal,
		noContextTotal:    noContextTotal,
		retrievedResults:  retrievedResults,
		retrievalDuration: retrievalDuration,
		strategyHitsTotal: strategyHitsTotal,
	}
}

func (m *RetrievalMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *RetrievalMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
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
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *RetrievalMetrics) RecordRetrieval(service, mode string, resultCount int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.retrievalsTotal.WithLabelValues(service).Inc()
	m.gateModeTotal.WithLabelValues(service, mode).Inc()
	m.retrievedResults.WithLabelValues(service).Observe(float64(resultCount))
	m.retrievalDuration.WithLabelValues(service).Observe(duration.Seconds())
	if resultCount == 0 {
		m.noContextTotal.WithLabelValues(service).Inc()
	}
}

func (m *RetrievalMetrics) RecordStrategyHits(service, strategy string, hits int) {
	if hits <= 0 {
		return
	}
	m.strategyHitsTotal.WithLabelValues(service, strategy).Add(float64(hits))
}

// statusRecorder only needs the status code; body passthrough and
// flushing stay with the embedded writer.
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
