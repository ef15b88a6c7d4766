package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	sessionsStarted   *prometheus.CounterVec
	sessionsActive    prometheus.Gauge
	confirmations     *prometheus.CounterVec
	classInstances    prometheus.Counter
	loadFailures      prometheus.Counter
	availabilityLoads prometheus.Histogram
}

// NewMetricsService registers core Prometheus collectors.
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
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	sessionsStarted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_sessions_started_total",
		Help: "Schedule selector sessions opened, by flow",
	}, []string{"flow"})

	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_sessions_active",
		Help: "Schedule selector sessions currently held in memory",
	})

	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_confirmations_total",
		Help: "Confirmed schedules, by recurrence mode",
	}, []string{"mode"})

	classInstances := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_class_instances_total",
		Help: "Class instances persisted from confirmed schedules",
	})

	loadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_availability_load_failures_total",
		Help: "Availability loads that exhausted their retries",
	})

	availabilityLoads := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_availability_load_seconds",
		Help:    "Duration of successful availability loads",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHits, cacheMisses,
		sessionsStarted, sessionsActive, confirmations, classInstances, loadFailures, availabilityLoads, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		sessionsStarted:   sessionsStarted,
		sessionsActive:    sessionsActive,
		confirmations:     confirmations,
		classInstances:    classInstances,
		loadFailures:      loadFailures,
		availabilityLoads: availabilityLoads,
	}
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// SessionStarted counts a new selector session. flow is "enroll" or "edit".
func (m *MetricsService) SessionStarted(flow string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(flow).Inc()
}

// SetActiveSessions reports the in-memory session count.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// ScheduleConfirmed counts a successful confirmation.
func (m *MetricsService) ScheduleConfirmed(recurring bool) {
	if m == nil {
		return
	}
	mode := "single_week"
	if recurring {
		mode = "recurring"
	}
	m.confirmations.WithLabelValues(mode).Inc()
}

// ClassInstancesPersisted adds persisted class instances.
func (m *MetricsService) ClassInstancesPersisted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.classInstances.Add(float64(n))
}

// AvailabilityLoadFailed counts a load that gave up.
func (m *MetricsService) AvailabilityLoadFailed() {
	if m == nil {
		return
	}
	m.loadFailures.Inc()
}

// ObserveAvailabilityLoad records a successful load.
func (m *MetricsService) ObserveAvailabilityLoad(duration time.Duration) {
	if m == nil {
		return
	}
	m.availabilityLoads.Observe(duration.Seconds())
}
