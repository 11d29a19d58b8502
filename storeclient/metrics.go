package storeclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/panicstore/metric"
)

const metricsService = "storeclient"

// storeMetrics is nil-safe; a client without WithMetrics records nothing.
type storeMetrics struct {
	connected         prometheus.Gauge
	status            prometheus.Gauge
	reconnectAttempts prometheus.Counter
	reconnects        prometheus.Counter
	drops             prometheus.Counter
	terminalFailures  *prometheus.CounterVec
	operationErrors   *prometheus.CounterVec
	batchDuration     *prometheus.HistogramVec
	batchKeys         *prometheus.HistogramVec
}

func newStoreMetrics(registry metric.MetricsRegistrar) (*storeMetrics, error) {
	m := &storeMetrics{
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "connected",
			Help:      "Whether the store connection is usable (0/1)",
		}),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "connection_status",
			Help:      "Connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=terminally_failed)",
		}),
		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "reconnect_attempts_total",
			Help:      "Dial attempts made by reconnect cycles",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "reconnects_total",
			Help:      "Connections restored by a reconnect cycle",
		}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "connection_drops_total",
			Help:      "Connected transports detected as lost",
		}),
		terminalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "terminal_failures_total",
			Help:      "Reconnect cycles that gave up, by reason",
		}, []string{"reason"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "operation_errors_total",
			Help:      "Failed store commands by operation",
		}, []string{"operation"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "batch_read_duration_seconds",
			Help:      "Latency of batched reads",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),
		batchKeys: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "store",
			Name:      "batch_read_keys",
			Help:      "Keys requested per batched read",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"operation"}),
	}

	if err := registry.RegisterGauge(metricsService, "connected", m.connected); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(metricsService, "connection_status", m.status); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(metricsService, "reconnect_attempts", m.reconnectAttempts); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(metricsService, "reconnects", m.reconnects); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(metricsService, "connection_drops", m.drops); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(metricsService, "terminal_failures", m.terminalFailures); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(metricsService, "operation_errors", m.operationErrors); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(metricsService, "batch_read_duration", m.batchDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(metricsService, "batch_read_keys", m.batchKeys); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *storeMetrics) recordStatus(status ConnectionStatus) {
	if m == nil {
		return
	}
	m.status.Set(float64(status))
	if status == StatusConnected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

func (m *storeMetrics) recordConnected(restored bool) {
	if m == nil || !restored {
		return
	}
	m.reconnects.Inc()
}

func (m *storeMetrics) recordReconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnectAttempts.Inc()
}

func (m *storeMetrics) recordDrop() {
	if m == nil {
		return
	}
	m.drops.Inc()
}

func (m *storeMetrics) recordTerminalFailure(reason string) {
	if m == nil {
		return
	}
	m.terminalFailures.WithLabelValues(reason).Inc()
}

func (m *storeMetrics) recordOperationError(operation string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation).Inc()
}

func (m *storeMetrics) recordBatchRead(keys int, duration time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues("mget").Observe(duration.Seconds())
	m.batchKeys.WithLabelValues("mget").Observe(float64(keys))
}
