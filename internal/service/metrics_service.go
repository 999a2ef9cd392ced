package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/bk-portal-api/internal/models"
)

const metricsNamespace = "bk_portal"

// Account events counted by RecordAccountEvent.
const (
	EventUserDelete = "user_delete"
	EventRoleChange = "role_change"
)

// MetricsService owns the Prometheus registry and keeps running totals for
// the JSON summary shown on the admin dashboard. A nil receiver is a no-op.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	cacheLookups    *prometheus.HistogramVec
	cacheWrites     prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	dbQueries       *prometheus.HistogramVec
	storageOps      *prometheus.CounterVec
	kpiFailures     *prometheus.CounterVec
	accountEvents   *prometheus.CounterVec

	totals struct {
		cacheHits, cacheMisses     atomic.Uint64
		requests, requestNanos     atomic.Uint64
		dbQueries, dbNanos         atomic.Uint64
		deletions, partialDeletion atomic.Uint64
	}
}

// NewMetricsService registers the portal collectors plus Go runtime and
// process collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}
	m.requestDuration = prometheus.NewHistogramVec(histOpts("http_request_duration_seconds", "HTTP request latency by route"), []string{"method", "route", "status"})
	m.requests = prometheus.NewCounterVec(counterOpts("http_requests_total", "HTTP requests by route"), []string{"method", "route", "status"})
	m.cacheLookups = prometheus.NewHistogramVec(histOpts("cache_lookup_seconds", "Content cache lookups"), []string{"result"})
	m.cacheWrites = prometheus.NewHistogram(histOpts("cache_write_seconds", "Content cache writes"))
	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{Namespace: metricsNamespace, Name: "cache_hit_ratio", Help: "Hits over lookups since start"})
	m.dbQueries = prometheus.NewHistogramVec(histOpts("db_query_duration_seconds", "Timed database queries"), []string{"query"})
	m.storageOps = prometheus.NewCounterVec(counterOpts("storage_operations_total", "Object storage calls by bucket, operation and result"), []string{"bucket", "op", "result"})
	m.kpiFailures = prometheus.NewCounterVec(counterOpts("kpi_counter_failures_total", "Dashboard and account counters that failed to load"), []string{"metric"})
	m.accountEvents = prometheus.NewCounterVec(counterOpts("account_events_total", "Privileged account changes by result"), []string{"event", "result"})

	m.registry.MustRegister(
		m.requestDuration, m.requests, m.cacheLookups, m.cacheWrites, m.cacheHitRatio,
		m.dbQueries, m.storageOps, m.kpiFailures, m.accountEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: metricsNamespace}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

func histOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: metricsNamespace, Name: name, Help: help, Buckets: prometheus.DefBuckets}
}

func counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: metricsNamespace, Name: name, Help: help}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
	m.requests.WithLabelValues(method, route, code).Inc()
	m.totals.requests.Add(1)
	m.totals.requestNanos.Add(uint64(d.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
		m.totals.cacheHits.Add(1)
	} else {
		m.totals.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Observe(d.Seconds())
	m.cacheHitRatio.Set(ratio(m.totals.cacheHits.Load(), m.totals.cacheMisses.Load()))
}

// ObserveCacheWrite tracks a cache write.
func (m *MetricsService) ObserveCacheWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(d.Seconds())
}

// ObserveDBQuery records the latency of a named query.
func (m *MetricsService) ObserveDBQuery(label string, d time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(label).Observe(d.Seconds())
	m.totals.dbQueries.Add(1)
	m.totals.dbNanos.Add(uint64(d.Nanoseconds()))
}

// ObserveStorageOp counts an object storage call.
func (m *MetricsService) ObserveStorageOp(bucket, op string, err error) {
	if m == nil {
		return
	}
	m.storageOps.WithLabelValues(bucket, op, resultLabel(err)).Inc()
}

// RecordCounterFailure counts a KPI counter that could not be computed.
func (m *MetricsService) RecordCounterFailure(metric string) {
	if m == nil {
		return
	}
	m.kpiFailures.WithLabelValues(metric).Inc()
}

// RecordAccountEvent counts a privileged account change. result is "ok",
// "partial" or "error".
func (m *MetricsService) RecordAccountEvent(event, result string) {
	if m == nil {
		return
	}
	m.accountEvents.WithLabelValues(event, result).Inc()
	if event == EventUserDelete {
		switch result {
		case "ok":
			m.totals.deletions.Add(1)
		case "partial":
			m.totals.deletions.Add(1)
			m.totals.partialDeletion.Add(1)
		}
	}
}

// Snapshot returns aggregated totals for the /metrics/summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.totals.cacheHits.Load(), m.totals.cacheMisses.Load()
	requests := m.totals.requests.Load()
	dbCount := m.totals.dbQueries.Load()
	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(m.totals.requestNanos.Load(), requests),
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: averageMs(m.totals.dbNanos.Load(), dbCount),
		AccountsDeleted:          m.totals.deletions.Load(),
		PartialDeletions:         m.totals.partialDeletion.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
