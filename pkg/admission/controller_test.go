package admission

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/journal"
	"mercator-hq/turnstile/pkg/ratelimit"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

func testConfig(limiters ...config.LimiterConfig) *config.Config {
	cfg := &config.Config{Limiters: limiters}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestNewController(t *testing.T) {
	c, err := NewController(config.MinimalConfig())
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	want := []ratelimit.Kind{ratelimit.KindFixedWindow, ratelimit.KindSlidingWindowLog, ratelimit.KindTokenBucket}
	got := c.Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	l, ok := c.Limiter(ratelimit.KindTokenBucket)
	if !ok {
		t.Fatal("Limiter(token_bucket) not found")
	}
	if !l.(*ratelimit.TokenBucket).Running() {
		t.Error("token bucket refill not started")
	}
}

func TestNewController_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr error
	}{
		{name: "nil config", cfg: nil},
		{name: "no limiters", cfg: &config.Config{}},
		{
			name:    "unknown kind",
			cfg:     &config.Config{Limiters: []config.LimiterConfig{{Kind: "leaky_bucket", Permits: 1, Duration: time.Second}}},
			wantErr: ratelimit.ErrUnknownKind,
		},
		{
			name:    "invalid rate",
			cfg:     &config.Config{Limiters: []config.LimiterConfig{{Kind: "fixed_window", Permits: 0, Duration: time.Second}}},
			wantErr: ratelimit.ErrInvalidRate,
		},
		{
			name:    "log capacity at permits",
			cfg:     &config.Config{Limiters: []config.LimiterConfig{{Kind: "sliding_window_log", Permits: 5, Duration: time.Minute, LogCapacity: 5}}},
			wantErr: ratelimit.ErrLogCapacity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewController(tt.cfg)
			if err == nil {
				t.Fatal("NewController() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("NewController() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestController_TryAcquire(t *testing.T) {
	c, err := NewController(testConfig(
		config.LimiterConfig{Kind: "fixed_window", Permits: 2, Duration: time.Hour},
	))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	for i, want := range []bool{true, true, false} {
		got, err := c.TryAcquire(ratelimit.KindFixedWindow, 1)
		if err != nil {
			t.Fatalf("TryAcquire() error = %v", err)
		}
		if got != want {
			t.Errorf("TryAcquire() #%d = %v, want %v", i, got, want)
		}
	}

	_, err = c.TryAcquire(ratelimit.KindTokenBucket, 1)
	if !errors.Is(err, ratelimit.ErrUnknownKind) {
		t.Errorf("TryAcquire(unconfigured kind) error = %v, want ErrUnknownKind", err)
	}
}

func TestController_ManualRefill(t *testing.T) {
	c, err := NewController(testConfig(
		config.LimiterConfig{Kind: "token_bucket", Permits: 1, Duration: 10 * time.Millisecond, ManualRefill: true},
	))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	l, _ := c.Limiter(ratelimit.KindTokenBucket)
	if l.(*ratelimit.TokenBucket).Running() {
		t.Fatal("token bucket started despite manual_refill")
	}

	if ok, _ := c.TryAcquire(ratelimit.KindTokenBucket, 1); !ok {
		t.Fatal("first TryAcquire() = false, want true")
	}
	time.Sleep(50 * time.Millisecond)
	if ok, _ := c.TryAcquire(ratelimit.KindTokenBucket, 1); ok {
		t.Error("TryAcquire() = true after sleep without refill")
	}
}

func TestController_Reload(t *testing.T) {
	c, err := NewController(testConfig(
		config.LimiterConfig{Kind: "token_bucket", Permits: 1, Duration: time.Hour},
	))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	old, _ := c.Limiter(ratelimit.KindTokenBucket)
	if ok, _ := c.TryAcquire(ratelimit.KindTokenBucket, 1); !ok {
		t.Fatal("TryAcquire() = false, want true")
	}

	err = c.Reload(testConfig(
		config.LimiterConfig{Kind: "token_bucket", Permits: 5, Duration: time.Hour},
		config.LimiterConfig{Kind: "fixed_window", Permits: 1, Duration: time.Hour},
	))
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if old.(*ratelimit.TokenBucket).Running() {
		t.Error("old token bucket still refilling after Reload")
	}
	if len(c.Kinds()) != 2 {
		t.Errorf("Kinds() = %v, want 2 kinds", c.Kinds())
	}

	l, _ := c.Limiter(ratelimit.KindTokenBucket)
	if got := l.(*ratelimit.TokenBucket).Available(); got != 5 {
		t.Errorf("Available() after Reload = %d, want 5", got)
	}
}

func TestController_ReloadFailureKeepsLimiters(t *testing.T) {
	c, err := NewController(testConfig(
		config.LimiterConfig{Kind: "fixed_window", Permits: 1, Duration: time.Hour},
	))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	before, _ := c.Limiter(ratelimit.KindFixedWindow)
	if err := c.Reload(&config.Config{}); err == nil {
		t.Fatal("Reload(empty) error = nil, want error")
	}

	after, _ := c.Limiter(ratelimit.KindFixedWindow)
	if before != after {
		t.Error("failed Reload replaced the limiter")
	}
}

func TestController_Close(t *testing.T) {
	c, err := NewController(config.MinimalConfig())
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	l, _ := c.Limiter(ratelimit.KindTokenBucket)
	c.Close()
	c.Close()

	if l.(*ratelimit.TokenBucket).Running() {
		t.Error("token bucket still refilling after Close")
	}
	if _, err := c.TryAcquire(ratelimit.KindFixedWindow, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("TryAcquire() after Close error = %v, want ErrClosed", err)
	}
	if err := c.Reload(config.MinimalConfig()); !errors.Is(err, ErrClosed) {
		t.Errorf("Reload() after Close error = %v, want ErrClosed", err)
	}
	if c.Kinds() != nil {
		t.Errorf("Kinds() after Close = %v, want nil", c.Kinds())
	}
}

func TestController_JournalsDecisions(t *testing.T) {
	store := journal.NewMemoryStorage()
	rec := journal.NewRecorder(store, nil, nil)

	c, err := NewController(testConfig(
		config.LimiterConfig{Kind: "fixed_window", Permits: 3, Duration: time.Hour},
	), WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		c.TryAcquire(ratelimit.KindFixedWindow, 1)
	}
	c.Close()
	rec.Close()

	got, err := store.Summarize(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(got) != 1 || got[0].Admitted != 3 || got[0].Rejected != 2 {
		t.Errorf("Summarize() = %+v, want 3 admitted and 2 rejected", got)
	}
}

func TestController_SlidingWindowLogAtMinimumCapacity(t *testing.T) {
	cfg := testConfig(config.LimiterConfig{
		Kind: "sliding_window_log", Permits: 5, Duration: time.Minute, LogCapacity: 6,
	})
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	admitted := 0
	for i := 0; i < 100; i++ {
		ok, err := c.TryAcquire(ratelimit.KindSlidingWindowLog, 1)
		if err != nil {
			t.Fatalf("TryAcquire() error = %v", err)
		}
		if ok {
			admitted++
		}
	}
	if admitted != 5 {
		t.Errorf("admitted %d of 100 within one window, want 5", admitted)
	}
}

func TestController_ReloadDoesNotLeakGoroutines(t *testing.T) {
	cfg := testConfig(config.LimiterConfig{
		Kind: "sliding_window_log", Permits: 2, Duration: 10 * time.Millisecond,
	})

	before := runtime.NumGoroutine()

	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	for i := 0; i < 200; i++ {
		if err := c.Reload(cfg); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
	}
	c.Close()

	if after := runtime.NumGoroutine(); after > before+5 {
		t.Errorf("goroutines grew from %d to %d after 200 reloads and Close", before, after)
	}
}

func TestController_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := ratelimit.NewMetrics(reg, "test")

	c, err := NewController(testConfig(
		config.LimiterConfig{Kind: "sliding_window_log", Permits: 2, Duration: time.Hour},
	), WithMetrics(m))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.TryAcquire(ratelimit.KindSlidingWindowLog, 1)
	}

	got, err := testutil.GatherAndCount(reg, "test_admission_decisions_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if got != 2 {
		t.Errorf("decision series = %d, want 2 (admitted and rejected)", got)
	}
}

func TestController_ReloadTraced(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(config.TracingConfig{Enabled: true}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	c, err := NewController(config.MinimalConfig(), WithTracer(tracer))
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	if err := c.Reload(config.MinimalConfig()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if err := c.Reload(&config.Config{}); err == nil {
		t.Fatal("Reload(empty) error = nil, want error")
	}
	tracer.Flush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}
	for _, s := range spans {
		if s.Name != "admission.reload" {
			t.Errorf("span name = %q, want admission.reload", s.Name)
		}
	}
	if spans[0].Status.Code != codes.Ok || spans[1].Status.Code != codes.Error {
		t.Errorf("span statuses = %v, %v; want ok then error", spans[0].Status.Code, spans[1].Status.Code)
	}
}
