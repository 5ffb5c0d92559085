// Package logging builds log/slog loggers from configuration.
//
// # Usage
//
//	logger, err := logging.Install(cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//	logger.Info("limiters ready", "kinds", kinds)
//
// Components in this module take a *slog.Logger and tag it with a
// "component" attribute; when none is supplied they use slog.Default, which
// Install replaces.
//
// Formats:
//   - json: one JSON object per line (default)
//   - text: key=value pairs
//   - console: key=value pairs without timestamps
package logging
