// Package telemetry groups process observability for the OrthoGuide API.
//
// Tracing is bootstrapped by internal/platform/otel; operational metrics
// (request latency, lookup outcomes, in-flight requests) live in
// telemetry/metrics and are exposed in Prometheus format on /metrics.
package telemetry
