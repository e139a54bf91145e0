// Package metrics provides Prometheus-based metrics collection for scanbridge.
// Collectors live on a private registry exposed through GetRegistry so the
// API server can serve them without touching the global default registry.
package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// Namespace for all scanbridge metrics
	namespace = "scanbridge"

	// Subsystems
	subsystemScan      = "scan"
	subsystemDiscovery = "discovery"
	subsystemEngine    = "engine"
	subsystemDelivery  = "delivery"
	subsystemSystem    = "system"
	subsystemAPI       = "api"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Scan lifecycle metrics
	scanStarts      *prometheus.CounterVec
	statusQueries   *prometheus.CounterVec
	findingsSkipped prometheus.Counter

	// Discovery metrics
	discoveryPasses   *prometheus.CounterVec
	discoveryDuration *prometheus.HistogramVec
	hostsDiscovered   prometheus.Counter

	// Engine metrics
	engineOps        *prometheus.CounterVec
	engineOpDuration *prometheus.HistogramVec

	// Delivery metrics
	deliveries         *prometheus.CounterVec
	pendingObligations prometheus.Gauge

	// API metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// System metrics
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge

	startTime  time.Time
	lastUpdate time.Time
	mu         sync.RWMutex
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		startTime: time.Now(),
		registry:  registry,
	}

	pm.initScanMetrics()
	pm.initDiscoveryMetrics()
	pm.initEngineMetrics()
	pm.initDeliveryMetrics()
	pm.initAPIMetrics()
	pm.initSystemMetrics()

	pm.registerMetrics()

	// Standard Go and process collectors for runtime visibility
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return pm
}

func (pm *PrometheusMetrics) initScanMetrics() {
	pm.scanStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "starts_total",
			Help:      "Start-scan requests by scan type and outcome stage",
		},
		[]string{"scan_type", "outcome"},
	)

	pm.statusQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "status_queries_total",
			Help:      "Status queries by canonical status",
		},
		[]string{"status"},
	)

	pm.findingsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "findings_skipped_total",
			Help:      "Report result entries skipped because a field failed to parse",
		},
	)
}

func (pm *PrometheusMetrics) initDiscoveryMetrics() {
	pm.discoveryPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDiscovery,
			Name:      "passes_total",
			Help:      "Discovery passes by outcome",
		},
		[]string{"status"},
	)

	pm.discoveryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemDiscovery,
			Name:      "pass_duration_seconds",
			Help:      "Duration of individual discovery passes in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)

	pm.hostsDiscovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDiscovery,
			Name:      "hosts_total",
			Help:      "Live hosts reported by discovery passes",
		},
	)
}

func (pm *PrometheusMetrics) initEngineMetrics() {
	pm.engineOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "operations_total",
			Help:      "Scan engine operations by name and outcome",
		},
		[]string{"operation", "status"},
	)

	pm.engineOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemEngine,
			Name:      "operation_duration_seconds",
			Help:      "Duration of scan engine operations, session setup included",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
}

func (pm *PrometheusMetrics) initDeliveryMetrics() {
	pm.deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDelivery,
			Name:      "reports_total",
			Help:      "Report deliveries by outcome",
		},
		[]string{"status"},
	)

	pm.pendingObligations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemDelivery,
			Name:      "pending_obligations",
			Help:      "Delivery obligations waiting for their task to finish",
		},
	)
}

func (pm *PrometheusMetrics) initAPIMetrics() {
	pm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	pm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
}

func (pm *PrometheusMetrics) initSystemMetrics() {
	pm.goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	pm.uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)
}

// registerMetrics registers all metrics with the Prometheus registry
func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(
		pm.scanStarts,
		pm.statusQueries,
		pm.findingsSkipped,
		pm.discoveryPasses,
		pm.discoveryDuration,
		pm.hostsDiscovered,
		pm.engineOps,
		pm.engineOpDuration,
		pm.deliveries,
		pm.pendingObligations,
		pm.httpRequests,
		pm.httpDuration,
		pm.goroutines,
		pm.uptime,
	)
}

// GetRegistry returns the Prometheus registry for HTTP handler
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// IncrementScanStarts counts a start-scan request by type and outcome.
func (pm *PrometheusMetrics) IncrementScanStarts(scanType, outcome string) {
	pm.scanStarts.WithLabelValues(scanType, outcome).Inc()
}

// IncrementStatusQueries counts a status query by canonical status.
func (pm *PrometheusMetrics) IncrementStatusQueries(status string) {
	pm.statusQueries.WithLabelValues(status).Inc()
}

// AddSkippedFindings counts result entries dropped while parsing a report.
func (pm *PrometheusMetrics) AddSkippedFindings(count int) {
	pm.findingsSkipped.Add(float64(count))
}

// ObserveDiscoveryPass records one discovery pass.
func (pm *PrometheusMetrics) ObserveDiscoveryPass(status string, duration time.Duration, hosts int) {
	pm.discoveryPasses.WithLabelValues(status).Inc()
	pm.discoveryDuration.WithLabelValues(status).Observe(duration.Seconds())
	pm.hostsDiscovered.Add(float64(hosts))
}

// ObserveEngineOperation records one scan engine operation.
func (pm *PrometheusMetrics) ObserveEngineOperation(operation, status string, duration time.Duration) {
	pm.engineOps.WithLabelValues(operation, status).Inc()
	pm.engineOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncrementDeliveries counts a report delivery attempt by outcome.
func (pm *PrometheusMetrics) IncrementDeliveries(status string) {
	pm.deliveries.WithLabelValues(status).Inc()
}

// SetPendingObligations sets the number of stored delivery obligations.
func (pm *PrometheusMetrics) SetPendingObligations(count int) {
	pm.pendingObligations.Set(float64(count))
}

// IncrementHTTPRequests increments HTTP request counter
func (pm *PrometheusMetrics) IncrementHTTPRequests(method, path, status string) {
	pm.httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPDuration records HTTP request duration
func (pm *PrometheusMetrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	pm.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateSystemMetrics updates all system metrics with current values
func (pm *PrometheusMetrics) UpdateSystemMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.goroutines.Set(float64(runtime.NumGoroutine()))
	pm.uptime.Set(time.Since(pm.startTime).Seconds())
	pm.lastUpdate = time.Now()
}

// GetUptime returns the application uptime
func (pm *PrometheusMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// GetLastUpdate returns the last metrics update time
func (pm *PrometheusMetrics) GetLastUpdate() time.Time {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.lastUpdate
}

// StartPeriodicUpdates periodically updates system metrics until ctx is done
func (pm *PrometheusMetrics) StartPeriodicUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.UpdateSystemMetrics()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.UpdateSystemMetrics()
		}
	}
}
