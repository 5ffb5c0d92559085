package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/ratelimit"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate the configuration file, then print the limiters it
defines. Environment overrides (TURNSTILE_*) are applied before validation.

Examples:
  # Validate the default config.yaml
  turnstile validate

  # Validate another file and print the limiters as JSON
  turnstile validate --config /etc/turnstile/config.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json, csv")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), limiterTable(cfg.Limiters))
}

// limiterTable lists configured limiters.
type limiterTable []config.LimiterConfig

func (t limiterTable) Headers() []string {
	return []string{"kind", "permits", "duration", "refill", "log_capacity"}
}

func (t limiterTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, l := range t {
		refill, capacity := "-", "-"
		switch ratelimit.Kind(l.Kind) {
		case ratelimit.KindTokenBucket:
			refill = "auto"
			if l.ManualRefill {
				refill = "manual"
			}
		case ratelimit.KindSlidingWindowLog:
			capacity = strconv.Itoa(l.LogCapacity)
		}
		rows = append(rows, []string{
			l.Kind,
			strconv.Itoa(l.Permits),
			l.Duration.String(),
			refill,
			capacity,
		})
	}
	return rows
}
