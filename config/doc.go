// Package config loads the service configuration.
//
// Values are resolved in order: built-in defaults, then each file layer
// (YAML, or JSON since JSON is valid YAML), then environment variables:
//
//	REDIS_IP                 store host (default localhost)
//	REDIS_PORT               store port (default 6379)
//	REDIS_DB                 store database index (default 10)
//	REDIS_PASSWORD           store password
//	UI_DASHBOARD_PORT        API port (default 9000)
//	PANICSTORE_METRICS_PORT  Prometheus port (default 9090)
//
// The result is validated once and treated as read-only afterwards.
//
//	loader := config.NewLoader()
//	loader.AddLayer("/etc/panicstore/config.yaml")
//	cfg, err := loader.Load()
//
// Durations accept Go duration strings ("250ms", "5s", "1h").
package config
