package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "turnstile",
	Short: "Turnstile - in-process admission control",
	Long: `Turnstile decides, for a stream of permit requests, whether each request
is admitted under a configured rate. It ships three limiters:
  - token bucket, refilled to its quota every period
  - fixed window, counting permits per aligned window
  - sliding window log, counting requests over the trailing window`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the configuration file with environment overrides,
// applies the --log-level flag and installs the configured logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, nil, cli.NewUsageError("log-level", err.Error())
		}
		cfg.Telemetry.Logging.Level = logLevel
	}

	logger, err := logging.Install(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	config.SetConfig(cfg)
	return cfg, logger, nil
}
