package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the playground
type PrometheusMetrics struct {
	// Action metrics
	ActionsTotal         *prometheus.CounterVec
	ActionDuration       *prometheus.HistogramVec
	ActionsDroppedTotal  *prometheus.CounterVec
	GuardBusy            *prometheus.GaugeVec
	LogEntriesTotal      *prometheus.CounterVec
	TransactionsRecorded *prometheus.CounterVec

	// RPC metrics
	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec

	// Wallet metrics
	WalletBalanceLamports prometheus.Gauge
	WalletConnected       prometheus.Gauge

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates all metrics and registers them with reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_actions_total",
				Help: "Total number of wallet actions run to completion",
			},
			[]string{"action", "status"},
		),

		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_action_duration_seconds",
				Help:    "Time spent in wallet actions, including SDK round trips",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),

		ActionsDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_actions_dropped_total",
				Help: "Action triggers ignored because the same action was still in progress",
			},
			[]string{"action"},
		),

		GuardBusy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "playground_guard_busy",
				Help: "Whether an action guard is currently held (1=busy, 0=idle)",
			},
			[]string{"action"},
		),

		LogEntriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_log_entries_total",
				Help: "Activity log entries appended, by kind",
			},
			[]string{"kind"},
		),

		TransactionsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_transactions_recorded_total",
				Help: "Transaction history records, by type and status",
			},
			[]string{"type", "status"},
		),

		RPCRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_rpc_requests_total",
				Help: "Total number of RPC requests made to the cluster",
			},
			[]string{"method", "status"},
		),

		RPCRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_rpc_request_duration_seconds",
				Help:    "Duration of RPC requests to the cluster",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		WalletBalanceLamports: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_wallet_balance_lamports",
				Help: "Last known balance of the connected smart wallet",
			},
		),

		WalletConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_wallet_connected",
				Help: "Whether a smart wallet is connected (1=connected, 0=disconnected)",
			},
		),

		StorageOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_storage_operations_total",
				Help: "Total number of persistent store operations",
			},
			[]string{"operation", "backend", "status"},
		),

		StorageOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_storage_operation_duration_seconds",
				Help:    "Duration of persistent store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests received",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "playground_component_health",
				Help: "Health status of application components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_goroutines",
				Help: "Number of running goroutines",
			},
		),
	}
}

// RecordAction records a completed action
func (m *PrometheusMetrics) RecordAction(action, status string, duration time.Duration) {
	m.ActionsTotal.WithLabelValues(action, status).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordActionDropped records a trigger ignored by a held guard
func (m *PrometheusMetrics) RecordActionDropped(action string) {
	m.ActionsDroppedTotal.WithLabelValues(action).Inc()
}

// UpdateGuardBusy updates the busy gauge of an action guard
func (m *PrometheusMetrics) UpdateGuardBusy(action string, busy bool) {
	m.GuardBusy.WithLabelValues(action).Set(boolToFloat(busy))
}

// RecordLogEntry records an appended activity log entry
func (m *PrometheusMetrics) RecordLogEntry(kind string) {
	m.LogEntriesTotal.WithLabelValues(kind).Inc()
}

// RecordTransaction records a transaction history entry
func (m *PrometheusMetrics) RecordTransaction(txType, status string) {
	m.TransactionsRecorded.WithLabelValues(txType, status).Inc()
}

// RecordRPCRequest records an RPC request
func (m *PrometheusMetrics) RecordRPCRequest(method, status string, duration time.Duration) {
	m.RPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.RPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// UpdateWallet updates the wallet connection and balance gauges
func (m *PrometheusMetrics) UpdateWallet(connected bool, lamports uint64) {
	m.WalletConnected.Set(boolToFloat(connected))
	m.WalletBalanceLamports.Set(float64(lamports))
}

// RecordStorageOperation records a persistent store operation
func (m *PrometheusMetrics) RecordStorageOperation(operation, backend, status string, duration time.Duration) {
	m.StorageOperationsTotal.WithLabelValues(operation, backend, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the application uptime metric
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates the health status of a component
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	m.ComponentHealth.WithLabelValues(component).Set(boolToFloat(healthy))
}

// UpdateMemoryUsage updates the memory usage metric
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count metric
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
