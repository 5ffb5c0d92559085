package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a single action repeatedly at a fixed interval until stopped.
// A Scheduler can be restarted after Stop.
type Scheduler struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	gate    *coalescer
	entry   cron.EntryID
	running bool
}

// New creates a scheduler with the given interval. A nil logger uses
// slog.Default. New panics if interval is not positive.
func New(interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		panic(fmt.Sprintf("scheduler: non-positive interval %v", interval))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start runs action once, then launches the periodic task and returns true.
// It returns false and does nothing if the scheduler is already running.
//
// Runs never overlap. If a run outlasts the interval, the ticks it missed
// collapse into one run that starts as soon as it returns.
//
// The first run happens on the calling goroutine before Start returns, so
// its effects are visible to the caller. action must not call back into the
// Scheduler.
func (s *Scheduler) Start(action func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}

	gate := &coalescer{}
	c := cron.New(
		cron.WithLogger(cronLogger{logger: s.logger}),
		cron.WithChain(gate.wrap),
	)
	s.entry = c.Schedule(constantDelay(s.interval), cron.FuncJob(action))

	action()
	c.Start()

	s.cron = c
	s.gate = gate
	s.running = true

	s.logger.Debug("scheduler started", "interval", s.interval)
	return true
}

// Stop halts future runs and returns a context that is done once any run in
// progress has returned. No run starts after Stop returns. Stopping a
// scheduler that is not running returns an already-done context.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.gate.stop()
	ctx := s.cron.Stop()
	s.cron = nil
	s.gate = nil
	s.running = false

	s.logger.Debug("scheduler stopped", "interval", s.interval)
	return ctx
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Interval returns the configured period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// NextRun returns the time of the next scheduled run, or nil if the
// scheduler is not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// constantDelay activates every interval after the previous activation.
// Unlike cron.Every it keeps sub-second precision.
type constantDelay time.Duration

// Next implements cron.Schedule.
func (d constantDelay) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// coalescer lets one run of a job proceed at a time. A tick that arrives
// during a run marks it pending instead of queueing; the active run then
// repeats once. After stop no new run begins.
type coalescer struct {
	mu      sync.Mutex
	active  bool
	pending bool
	stopped atomic.Bool
}

func (g *coalescer) wrap(j cron.Job) cron.Job {
	return cron.FuncJob(func() {
		g.mu.Lock()
		if g.active {
			g.pending = true
			g.mu.Unlock()
			return
		}
		g.active = true
		g.mu.Unlock()

		for {
			if !g.stopped.Load() {
				j.Run()
			}

			g.mu.Lock()
			if !g.pending || g.stopped.Load() {
				g.active = false
				g.pending = false
				g.mu.Unlock()
				return
			}
			g.pending = false
			g.mu.Unlock()
		}
	})
}

func (g *coalescer) stop() {
	g.stopped.Store(true)
}

// cronLogger adapts slog to cron.Logger. Cron's informational chatter is
// demoted to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
