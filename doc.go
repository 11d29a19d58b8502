// Package panicstore serves the monitoring dashboard's data API from Redis.
//
// The monitoring backend writes its state (system metrics, repository
// metrics, component heartbeats, per-chain monitorable summaries) into Redis
// under short schema-derived keys. panicstore reads that state back for the
// dashboard: each request names a set of entities, and the service answers
// with one batched read and a per-entity JSON snapshot.
//
// # Layout
//
//	keys         key schema registry: category/field to fragment, key builders
//	storeclient  Redis connection manager with bounded reconnect cycles
//	aggregate    batched reads with per-entity decoding
//	gateway      request validation and error-to-status mapping
//	gateway/http HTTP handlers and listener for /server/*
//	health       component health aggregation
//	metric       Prometheus registry and metrics endpoint
//	config       defaults, YAML layers and environment overrides
//	errors       error classification shared by every package
//	pkg/retry    backoff policy and injectable clock
//
// # Failure model
//
// A connection drop moves the store client into a reconnect cycle with
// linear backoff min(k*100ms, 3s), abandoned after 10 attempts or an hour of
// waiting. While not connected every read fails fast with a not-ready error
// (HTTP 503). A background supervisor restarts abandoned cycles. Data reads
// are never retried; a value that fails to decode is reported for its
// entity only.
//
// The binary lives in cmd/panicstore; cmd/panicstore-seed loads fixtures.
package panicstore
