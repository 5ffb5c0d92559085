package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// globalConfig holds the process-wide configuration.
	globalConfig atomic.Pointer[Config]

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration from path with environment variable
// overrides and stores it as the process-wide configuration. Only the first
// call has any effect; later calls return nil without reading path.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		globalConfig.Store(cfg)
	})

	return initErr
}

// GetConfig returns the process-wide configuration, or nil if Initialize
// has not succeeded. It is safe for concurrent use.
func GetConfig() *Config {
	return globalConfig.Load()
}

// SetConfig replaces the process-wide configuration. It is meant for tests
// and for the config watcher; use Initialize at startup.
func SetConfig(cfg *Config) {
	globalConfig.Store(cfg)
}

// ReloadConfig reloads configuration from path and replaces the process-wide
// configuration only if loading and validation succeed. On failure the
// current configuration stays in place.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	globalConfig.Store(cfg)
	return cfg, nil
}

// MustGetConfig is like GetConfig but panics if no configuration has been
// set.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

