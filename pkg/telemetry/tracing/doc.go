// Package tracing provides OpenTelemetry spans for Turnstile's slow paths:
// journal storage, limiter reloads, retention runs and simulations.
// Admission decisions themselves are not traced.
//
// Spans are exported over OTLP/gRPC when telemetry.tracing.enabled is set;
// otherwise every call is a no-op.
package tracing
