// Package telemetry groups the observability packages used by Turnstile.
//
//   - logging: log/slog loggers built from configuration
//   - metrics: Prometheus registry, limiter and journal metrics, and the
//     /metrics endpoint
//   - tracing: OpenTelemetry spans for reloads, journal I/O and simulations,
//     exported over OTLP gRPC
package telemetry
