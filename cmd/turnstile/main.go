// Turnstile is an in-process admission-control toolkit.
//
// The turnstile command validates limiter configuration and drives
// synthetic load through the configured limiters:
//
//	# Validate a configuration file
//	turnstile validate --config config.yaml
//
//	# Four workers asking the token bucket for one permit every 10ms
//	turnstile simulate --config config.yaml --kind token_bucket --workers 4
//
//	# Reload limiters when the file changes and expose Prometheus metrics
//	turnstile simulate --watch --metrics-addr 127.0.0.1:9090
//
//	# Show version information
//	turnstile version
package main

func main() {
	Execute()
}
