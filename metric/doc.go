// Package metric provides the Prometheus registry and scrape server.
//
// MetricsRegistry wraps a private prometheus.Registry. It registers the
// service-wide Metrics (HTTP requests, errors, health) at construction and
// lets components add their own collectors through MetricsRegistrar, keyed by
// service and metric name so a duplicate registration is reported instead of
// panicking:
//
//	registry := metric.NewMetricsRegistry()
//	store, _ := storeclient.NewClient(addr, storeclient.WithMetrics(registry))
//
//	server := metric.NewServer(9090, "/metrics", registry, security.Config{})
//	go server.Start()
//	defer server.Stop()
//
// Metric names share the "panicstore" namespace.
package metric
