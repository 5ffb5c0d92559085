// Package metrics wires Prometheus collection for a Turnstile process.
//
// # Metrics
//
//   - <ns>_admission_decisions_total{kind,result}
//   - <ns>_admission_permits_total{kind,result}
//   - <ns>_token_bucket_refills_total{kind}
//   - <ns>_token_bucket_available_permits{kind}
//   - <ns>_sliding_window_log_entries{kind}
//   - <ns>_journal_records_total{outcome}
//   - <ns>_journal_queue_length
//
// plus the standard Go runtime and process collectors.
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	go collector.Serve(ctx, logger)
//
// The limiter group is defined in package ratelimit; this package only
// registers it and serves the registry over HTTP.
package metrics
