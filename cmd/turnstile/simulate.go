package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/turnstile/pkg/admission"
	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/journal"
	"mercator-hq/turnstile/pkg/ratelimit"
	"mercator-hq/turnstile/pkg/telemetry/metrics"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

var simulateFlags struct {
	kind        string
	workers     int
	permits     int
	interval    time.Duration
	duration    time.Duration
	watch       bool
	metricsAddr string
	format      string
	noProgress  bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive synthetic load through a configured limiter",
	Long: `Run workers that repeatedly ask one configured limiter for permits and
report how many requests were admitted and rejected.

Every worker sends one request per interval until the duration elapses or
the process receives SIGINT/SIGTERM. Decisions are journaled when the
journal is enabled in the configuration.

Examples:
  # Four workers, one permit every 10ms, for 10 seconds
  turnstile simulate --kind token_bucket --workers 4 --interval 10ms --duration 10s

  # Reload limiters when the config file changes
  turnstile simulate --kind fixed_window --duration 1m --watch

  # Expose Prometheus metrics while simulating
  turnstile simulate --metrics-addr 127.0.0.1:9090 --format json`,
	RunE: simulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateFlags.kind, "kind", string(ratelimit.KindTokenBucket), "limiter kind: token_bucket, fixed_window, sliding_window_log")
	simulateCmd.Flags().IntVar(&simulateFlags.workers, "workers", 4, "number of concurrent workers")
	simulateCmd.Flags().IntVar(&simulateFlags.permits, "permits", 1, "permits per request")
	simulateCmd.Flags().DurationVar(&simulateFlags.interval, "interval", 10*time.Millisecond, "delay between requests of one worker")
	simulateCmd.Flags().DurationVar(&simulateFlags.duration, "duration", 10*time.Second, "how long to run")
	simulateCmd.Flags().BoolVar(&simulateFlags.watch, "watch", false, "reload limiters when the config file changes")
	simulateCmd.Flags().StringVar(&simulateFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (enables metrics)")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "report format: text, json, csv")
	simulateCmd.Flags().BoolVar(&simulateFlags.noProgress, "no-progress", false, "disable the progress bar")
}

// simulation describes one load run.
type simulation struct {
	Kind     ratelimit.Kind
	Workers  int
	Permits  int
	Interval time.Duration
	Duration time.Duration
}

func (s simulation) validate() error {
	switch {
	case s.Workers <= 0:
		return cli.NewUsageError("workers", "must be positive")
	case s.Permits <= 0:
		return cli.NewUsageError("permits", "must be positive")
	case s.Interval <= 0:
		return cli.NewUsageError("interval", "must be positive")
	case s.Duration <= 0:
		return cli.NewUsageError("duration", "must be positive")
	}
	return nil
}

// acquirer is the part of admission.Controller the simulation uses.
type acquirer interface {
	TryAcquire(kind ratelimit.Kind, permits int) (bool, error)
}

// simulationReport summarizes a load run.
type simulationReport struct {
	Kind            ratelimit.Kind        `json:"kind"`
	Workers         int                   `json:"workers"`
	Elapsed         string                `json:"elapsed"`
	Requests        int64                 `json:"requests"`
	Admitted        int64                 `json:"admitted"`
	Rejected        int64                 `json:"rejected"`
	AdmittedPermits int64                 `json:"admitted_permits"`
	RejectedPermits int64                 `json:"rejected_permits"`
	Errors          int64                 `json:"errors"`
	Journal         []journal.KindSummary `json:"journal,omitempty"`
}

func (r *simulationReport) Headers() []string {
	return []string{"kind", "workers", "elapsed", "requests", "admitted", "rejected", "admitted_permits", "rejected_permits", "errors"}
}

func (r *simulationReport) Rows() [][]string {
	return [][]string{{
		string(r.Kind),
		strconv.Itoa(r.Workers),
		r.Elapsed,
		strconv.FormatInt(r.Requests, 10),
		strconv.FormatInt(r.Admitted, 10),
		strconv.FormatInt(r.Rejected, 10),
		strconv.FormatInt(r.AdmittedPermits, 10),
		strconv.FormatInt(r.RejectedPermits, 10),
		strconv.FormatInt(r.Errors, 10),
	}}
}

// counters are shared by all workers of a run.
type counters struct {
	admitted, rejected               atomic.Int64
	admittedPermits, rejectedPermits atomic.Int64
	errors                           atomic.Int64
}

func (c *counters) status() string {
	return fmt.Sprintf("admitted=%d rejected=%d", c.admitted.Load(), c.rejected.Load())
}

// progressInterval is how often the progress bar is redrawn.
const progressInterval = 200 * time.Millisecond

// runSimulation runs sim against a until sim.Duration elapses or ctx is
// cancelled.
func runSimulation(ctx context.Context, a acquirer, sim simulation, progress cli.ProgressReporter, logger *slog.Logger) *simulationReport {
	ctx, cancel := context.WithTimeout(ctx, sim.Duration)
	defer cancel()

	var (
		c     counters
		wg    sync.WaitGroup
		start = time.Now()
	)

	for i := 0; i < sim.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			ticker := time.NewTicker(sim.Interval)
			defer ticker.Stop()

			for {
				allowed, err := a.TryAcquire(sim.Kind, sim.Permits)
				switch {
				case err != nil:
					c.errors.Add(1)
					logger.Debug("admission request failed", "worker", worker, "error", err)
				case allowed:
					c.admitted.Add(1)
					c.admittedPermits.Add(int64(sim.Permits))
				default:
					c.rejected.Add(1)
					c.rejectedPermits.Add(int64(sim.Permits))
				}

				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	progress.Start(sim.Duration.Milliseconds())
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-done:
			break wait
		case <-ticker.C:
			progress.Update(time.Since(start).Milliseconds(), c.status())
		}
	}
	progress.Update(time.Since(start).Milliseconds(), c.status())
	progress.Finish()

	admitted, rejected := c.admitted.Load(), c.rejected.Load()
	return &simulationReport{
		Kind:            sim.Kind,
		Workers:         sim.Workers,
		Elapsed:         time.Since(start).Round(time.Millisecond).String(),
		Requests:        admitted + rejected + c.errors.Load(),
		Admitted:        admitted,
		Rejected:        rejected,
		AdmittedPermits: c.admittedPermits.Load(),
		RejectedPermits: c.rejectedPermits.Load(),
		Errors:          c.errors.Load(),
	}
}

func simulate(cmd *cobra.Command, args []string) error {
	kind, err := ratelimit.ParseKind(simulateFlags.kind)
	if err != nil {
		return cli.NewUsageError("kind", err.Error())
	}
	format, err := cli.ParseFormat(simulateFlags.format)
	if err != nil {
		return err
	}
	sim := simulation{
		Kind:     kind,
		Workers:  simulateFlags.workers,
		Permits:  simulateFlags.permits,
		Interval: simulateFlags.interval,
		Duration: simulateFlags.duration,
	}
	if err := sim.validate(); err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	// Metrics
	metricsCfg := cfg.Telemetry.Metrics
	if simulateFlags.metricsAddr != "" {
		metricsCfg.Enabled = true
		metricsCfg.ListenAddress = simulateFlags.metricsAddr
	}
	collector := metrics.NewCollector(metricsCfg, prometheus.NewRegistry())

	serveCtx, stopServe := context.WithCancel(ctx)
	var serveWG sync.WaitGroup
	if collector.Enabled() {
		serveWG.Add(1)
		go func() {
			defer serveWG.Done()
			if err := collector.Serve(serveCtx, logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}
	defer func() {
		stopServe()
		serveWG.Wait()
	}()

	// Tracing
	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	// Journal
	var (
		store    journal.Storage
		recorder *journal.Recorder
	)
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal)
		if err != nil {
			return cli.NewCommandError("simulate", fmt.Errorf("failed to open journal: %w", err))
		}
		defer store.Close()
		store = journal.WithTracing(store, tracer)

		recorder = journal.NewRecorder(store, &journal.RecorderConfig{
			AsyncBuffer:  cfg.Journal.AsyncBuffer,
			WriteTimeout: cfg.Journal.WriteTimeout,
		}, collector.Journal())
		defer recorder.Close()

		retention := journal.NewRetention(store, cfg.Journal.Retention, tracer)
		if err := retention.Start(ctx); err != nil {
			return cli.NewCommandError("simulate", err)
		}
		defer retention.Stop()
	}

	opts := []admission.Option{
		admission.WithLogger(logger),
		admission.WithMetrics(collector.Limiters()),
		admission.WithTracer(tracer),
	}
	if recorder != nil {
		opts = append(opts, admission.WithRecorder(recorder))
	}
	controller, err := admission.NewController(cfg, opts...)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	defer controller.Close()

	if _, ok := controller.Limiter(kind); !ok {
		return cli.NewUsageError("kind", fmt.Sprintf("%q is not configured in %s", kind, cfgFile))
	}

	// Config watcher
	var watcher *config.Watcher
	if simulateFlags.watch {
		watcher, err = config.NewWatcher(cfgFile, config.DefaultDebounceInterval, logger)
		if err != nil {
			return cli.NewCommandError("simulate", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				if err := controller.Reload(newCfg); err != nil {
					logger.Error("failed to apply reloaded config", "error", err)
				}
			})
			if err != nil && !errors.Is(err, config.ErrWatcherRunning) {
				logger.Error("config watcher failed", "error", err)
			}
		}()
	}

	var progress cli.ProgressReporter = cli.NewProgressReporter(cmd.ErrOrStderr())
	if simulateFlags.noProgress {
		progress = cli.NoProgress{}
	}

	started := time.Now()
	runCtx, span := tracer.Start(ctx, "turnstile.simulate")
	span.SetAttributes(
		tracing.Kind(string(kind)),
		attribute.Int("turnstile.workers", sim.Workers),
		attribute.String("turnstile.duration", sim.Duration.String()),
	)
	report := runSimulation(runCtx, controller, sim, progress, logger)
	span.SetAttributes(
		attribute.Int64("turnstile.admitted", report.Admitted),
		attribute.Int64("turnstile.rejected", report.Rejected),
	)
	tracing.End(span, nil)

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("failed to stop config watcher", "error", err)
		}
	}
	controller.Close()

	if recorder != nil {
		// Drain queued decisions before reading the journal back.
		recorder.Close()
		summaries, err := store.Summarize(context.Background(), started)
		if err != nil {
			logger.Warn("failed to summarize journal", "error", err)
		}
		report.Journal = summaries
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
}
