package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
)

// Skip reasons reported by timetable generation.
const (
	SkipReasonMissingTeacher = "missing_teacher"
	SkipReasonConflict       = "conflict"
	SkipReasonWorkloadCap    = "workload_cap"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, caching and timetable generation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec

	generations    *prometheus.CounterVec
	generationTime prometheus.Observer
	slotsCreated   prometheus.Counter
	slotsSkipped   *prometheus.CounterVec
	slotConflicts  *prometheus.CounterVec
	auditDropped   prometheus.Counter
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Timetable generation runs by outcome",
	}, []string{"outcome"})

	generationTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of timetable generation runs",
		Buckets: prometheus.DefBuckets,
	})

	slotsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_slots_created_total",
		Help: "Slots written by timetable generation",
	})

	slotsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_slots_skipped_total",
		Help: "Candidate slots skipped by timetable generation",
	}, []string{"reason"})

	slotConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_slot_conflicts_total",
		Help: "Manual slot writes rejected by conflict checks",
	}, []string{"dimension"})

	auditDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_audit_dropped_total",
		Help: "Audit events dropped because the queue was unavailable",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		generations, generationTime, slotsCreated, slotsSkipped, slotConflicts, auditDropped, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		generations:     generations,
		generationTime:  generationTime,
		slotsCreated:    slotsCreated,
		slotsSkipped:    slotsSkipped,
		slotConflicts:   slotConflicts,
		auditDropped:    auditDropped,
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

// Registry exposes the underlying registry.
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

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordGeneration records the outcome of one generation run.
func (m *MetricsService) RecordGeneration(result *dto.GenerationResult, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationTime.Observe(duration.Seconds())
	if err != nil || result == nil {
		m.generations.WithLabelValues("error").Inc()
		return
	}
	outcome := "success"
	if result.Created == 0 {
		outcome = "empty"
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.slotsCreated.Add(float64(result.Created))
	m.slotsSkipped.WithLabelValues(SkipReasonMissingTeacher).Add(float64(result.SkippedMissingTeacher))
	m.slotsSkipped.WithLabelValues(SkipReasonConflict).Add(float64(result.SkippedConflict))
	m.slotsSkipped.WithLabelValues(SkipReasonWorkloadCap).Add(float64(result.SkippedWorkloadCap))
}

// RecordSlotConflict counts a manual slot write rejected on the given dimension.
func (m *MetricsService) RecordSlotConflict(dimension string) {
	if m == nil {
		return
	}
	m.slotConflicts.WithLabelValues(dimension).Inc()
}

// RecordAuditDropped counts an audit event that could not be queued.
func (m *MetricsService) RecordAuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}
