package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/panicstore/keys"
	"github.com/c360/panicstore/metric"
)

type aggregateMetrics struct {
	requests     *prometheus.CounterVec
	entities     *prometheus.HistogramVec
	missing      *prometheus.CounterVec
	decodeErrors *prometheus.CounterVec
}

func newAggregateMetrics(registry metric.MetricsRegistrar) (*aggregateMetrics, error) {
	m := &aggregateMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "aggregate",
			Name:      "fetches_total",
			Help:      "Batched fetches by key category",
		}, []string{"category"}),
		entities: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "aggregate",
			Name:      "entities_per_fetch",
			Help:      "Distinct entities requested per fetch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"category"}),
		missing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "aggregate",
			Name:      "missing_values_total",
			Help:      "Entities with no stored value",
		}, []string{"category"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "aggregate",
			Name:      "decode_errors_total",
			Help:      "Stored values that were not valid JSON",
		}, []string{"category"}),
	}

	if err := registry.RegisterCounterVec("aggregate", "fetches", m.requests); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("aggregate", "entities_per_fetch", m.entities); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("aggregate", "missing_values", m.missing); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("aggregate", "decode_errors", m.decodeErrors); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *aggregateMetrics) record(category keys.Category, entities, missing, decodeErrors int) {
	if m == nil {
		return
	}
	label := string(category)
	m.requests.WithLabelValues(label).Inc()
	m.entities.WithLabelValues(label).Observe(float64(entities))
	m.missing.WithLabelValues(label).Add(float64(missing))
	m.decodeErrors.WithLabelValues(label).Add(float64(decodeErrors))
}
