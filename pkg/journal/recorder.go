package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/turnstile/pkg/ratelimit"
	"mercator-hq/turnstile/pkg/telemetry/metrics"
)

// RecorderConfig contains configuration for the decision recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes decisions to storage from a single background worker so
// callers on the admission path never wait on I/O.
type Recorder struct {
	storage    Storage
	config     *RecorderConfig
	metrics    *metrics.JournalMetrics
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a recorder writing to storage. m may be nil.
func NewRecorder(storage Storage, config *RecorderConfig, m *metrics.JournalMetrics) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultRecorderConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultRecorderConfig().WriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		metrics:    m,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("decision recorder initialized",
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a decision. It never blocks: when the queue is full the
// decision is dropped and counted. It returns false if the record was not
// queued.
func (r *Recorder) Record(kind ratelimit.Kind, permits int, allowed bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}

	record := NewRecord(kind, permits, allowed)
	select {
	case r.recordChan <- record:
		r.metrics.SetQueueLength(len(r.recordChan))
		return true
	default:
		r.metrics.RecordDropped()
		r.logger.Warn("journal queue full, dropping decision",
			"kind", kind,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return false
	}
}

// Storage returns the backend the recorder writes to.
func (r *Recorder) Storage() Storage {
	return r.storage
}

// Close stops accepting records, drains the queue and waits for the worker.
// It does not close the storage. Close is idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("decision recorder shut down")
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			r.logger.Debug("draining journal queue", "pending_count", len(r.recordChan))
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, record)
	r.metrics.SetQueueLength(len(r.recordChan))
	if err != nil {
		r.metrics.RecordFailed()
		r.logger.Error("failed to store decision",
			"record_id", record.ID,
			"kind", record.Kind,
			"error", err,
		)
		return
	}
	r.metrics.RecordWritten()

	if duration := time.Since(start); duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow journal write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}
