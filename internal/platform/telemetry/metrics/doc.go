// Package metrics provides operational metrics collection.
//
// # Metric Categories
//
//   - Latency: request duration histograms by route template
//   - Usage: request counts by method, route and status
//   - Lookups: gene-root lookup outcomes by species
//   - Load: in-flight HTTP requests
//
// Collectors are registered on a private Prometheus registry owned by
// Metrics, so several instances can coexist in tests. A nil *Metrics is a
// valid no-op recorder.
package metrics
