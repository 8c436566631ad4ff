package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Grade write sources used as metric labels.
const (
	SourceManual = "manual"
	SourcePoints = "points"
	SourceBulk   = "bulk"
	SourceRubric = "rubric"
)

// MetricsService encapsulates Prometheus instrumentation for the gradebook.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	gradesWritten      *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	bulkSkipped        prometheus.Counter
	inconsistentRubric prometheus.Counter
	editForceCancelled prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers gradebook Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "summary_cache_latency_seconds",
		Help:    "Latency for student summary cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "summary_cache_hit_ratio",
		Help: "Ratio of summary cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_hits_total",
		Help: "Total summary cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "summary_cache_misses_total",
		Help: "Total summary cache misses",
	})

	gradesWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_grades_written_total",
		Help: "Grade cells written, by source",
	}, []string{"source"})

	validationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradebook_validation_failures_total",
		Help: "Rejected grade inputs, by operation",
	}, []string{"operation"})

	bulkSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gradebook_bulk_skipped_total",
		Help: "Students skipped by bulk fill because they were already graded",
	})

	inconsistentRubric := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gradebook_inconsistent_rubric_selections_total",
		Help: "Rubric selections referencing unknown criteria or levels",
	})

	editForceCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gradebook_edit_force_cancelled_total",
		Help: "Open edits discarded because another cell took focus",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		gradesWritten, validationFailures, bulkSkipped, inconsistentRubric, editForceCancelled, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		gradesWritten:      gradesWritten,
		validationFailures: validationFailures,
		bulkSkipped:        bulkSkipped,
		inconsistentRubric: inconsistentRubric,
		editForceCancelled: editForceCancelled,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request duration and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordGradesWritten counts grade cells written by a source.
func (m *MetricsService) RecordGradesWritten(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.gradesWritten.WithLabelValues(source).Add(float64(n))
}

// RecordValidationFailure counts a rejected input.
func (m *MetricsService) RecordValidationFailure(operation string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(operation).Inc()
}

// RecordBulkSkipped counts students left untouched by a bulk fill.
func (m *MetricsService) RecordBulkSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bulkSkipped.Add(float64(n))
}

// RecordInconsistentSelections counts rubric selections that scored zero
// because the rubric does not define them.
func (m *MetricsService) RecordInconsistentSelections(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.inconsistentRubric.Add(float64(n))
}

// RecordEditForceCancelled counts edits discarded on focus change.
func (m *MetricsService) RecordEditForceCancelled() {
	if m == nil {
		return
	}
	m.editForceCancelled.Inc()
}
