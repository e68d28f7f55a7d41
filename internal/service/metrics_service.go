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

// Outcome labels for slot operations.
const (
	OutcomeValid     = "valid"
	OutcomeInvalid   = "invalid"
	OutcomeCommitted = "committed"
	OutcomeBlocked   = "blocked"
	OutcomeFailed    = "failed"
)

// MetricsService owns the Prometheus registry. Every method is a no-op on a
// nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	slotValidations  *prometheus.CounterVec
	slotAssignments  *prometheus.CounterVec
	slotDeletions    *prometheus.CounterVec
	assignDuration   prometheus.Histogram
	facultyResolved  *prometheus.CounterVec
	notificationsOut *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the HTTP, cache and timetable collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		slotValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_slot_validations_total",
			Help: "Slot validations by verdict",
		}, []string{"outcome"}),
		slotAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_slot_assignments_total",
			Help: "Slot assignment attempts by outcome",
		}, []string{"outcome"}),
		slotDeletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_slots_deleted_total",
			Help: "Slots removed by scope",
		}, []string{"scope"}),
		assignDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_assign_duration_seconds",
			Help:    "Duration of the assign transaction",
			Buckets: prometheus.DefBuckets,
		}),
		facultyResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_faculty_resolutions_total",
			Help: "Faculty resolutions by fallback step",
		}, []string{"source"}),
		notificationsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_notifications_total",
			Help: "Change notifications by delivery status",
		}, []string{"status"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.slotValidations, m.slotAssignments, m.slotDeletions, m.assignDuration, m.facultyResolved, m.notificationsOut,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
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
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordValidation counts a validation verdict.
func (m *MetricsService) RecordValidation(valid bool) {
	if m == nil {
		return
	}
	outcome := OutcomeInvalid
	if valid {
		outcome = OutcomeValid
	}
	m.slotValidations.WithLabelValues(outcome).Inc()
}

// RecordAssignment counts an assign attempt and its duration.
func (m *MetricsService) RecordAssignment(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.slotAssignments.WithLabelValues(outcome).Inc()
	m.assignDuration.Observe(duration.Seconds())
}

// RecordDeletion counts removed slots for scope (cell, grid, all).
func (m *MetricsService) RecordDeletion(scope string, removed int64) {
	if m == nil || removed <= 0 {
		return
	}
	m.slotDeletions.WithLabelValues(scope).Add(float64(removed))
}

// RecordFacultyResolution counts which fallback step bound the faculty.
func (m *MetricsService) RecordFacultyResolution(source string) {
	if m == nil {
		return
	}
	m.facultyResolved.WithLabelValues(source).Inc()
}

// RecordNotification counts a notification delivery outcome.
func (m *MetricsService) RecordNotification(status string) {
	if m == nil {
		return
	}
	m.notificationsOut.WithLabelValues(status).Inc()
}
