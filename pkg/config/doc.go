// Package config provides configuration management for Turnstile.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("turnstile.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("turnstile.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention TURNSTILE_SECTION_FIELD.
// For example:
//
//   - TURNSTILE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - TURNSTILE_JOURNAL_DRIVER overrides journal.driver
//   - TURNSTILE_LIMITERS_TOKEN_BUCKET_PERMITS overrides permits of the
//     declared token_bucket limiter
//
// Limiter overrides only modify limiters that the file declares.
//
// # Configuration Precedence
//
//  1. Values from YAML file
//  2. Default values for fields left empty (defined in defaults.go)
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation collects every problem before failing:
//
//	configuration validation failed with 2 errors:
//	  - limiters[1].kind: duplicate kind "fixed_window" (first declared at limiters[0])
//	  - journal.driver: invalid driver "postgres": must be 'sqlite', 'sqlite3', or 'memory'
//
// # Hot Reload
//
// Watcher watches the configuration file with fsnotify and hands every valid
// reload to a callback. Invalid edits are logged and ignored.
//
// # Example Configuration
//
//	limiters:
//	  - kind: token_bucket
//	    permits: 100
//	    duration: 1s
//	  - kind: sliding_window_log
//	    permits: 50
//	    duration: 10s
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
//	journal:
//	  enabled: true
//	  driver: "sqlite"
//	  path: "data/journal.db"
package config
