package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/turnstile/pkg/config"
)

func newTestTracer(t *testing.T, cfg config.TracingConfig) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(cfg, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	t.Cleanup(func() { tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(context.Background(), config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	_, span := tracer.Start(context.Background(), "noop")
	if span.IsRecording() {
		t.Error("noop span is recording")
	}
	span.End()

	if err := tracer.Flush(context.Background()); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer

	ctx, span := tracer.Start(context.Background(), "nil")
	if ctx == nil || span == nil {
		t.Fatal("Start() on nil tracer returned nil")
	}
	End(span, nil)

	if tracer.Enabled() {
		t.Error("Enabled() = true for nil tracer")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	tracer, exporter := newTestTracer(t, config.TracingConfig{Enabled: true, Sampler: SamplerAlways})

	ctx, parent := tracer.Start(context.Background(), "parent")
	_, child := tracer.Start(ctx, "child")
	child.SetAttributes(Kind("token_bucket"))
	End(child, errors.New("boom"))
	End(parent, nil)

	if err := tracer.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}

	byName := map[string]tracetest.SpanStub{}
	for _, s := range spans {
		byName[s.Name] = s
	}

	c, p := byName["child"], byName["parent"]
	if c.Parent.SpanID() != p.SpanContext.SpanID() {
		t.Error("child span is not parented to parent span")
	}
	if c.Status.Code != codes.Error || c.Status.Description != "boom" {
		t.Errorf("child status = %+v, want error boom", c.Status)
	}
	if len(c.Events) == 0 {
		t.Error("child span has no recorded error event")
	}
	if p.Status.Code != codes.Ok {
		t.Errorf("parent status = %+v, want ok", p.Status)
	}

	found := false
	for _, kv := range c.Attributes {
		if string(kv.Key) == "turnstile.limiter.kind" && kv.Value.AsString() == "token_bucket" {
			found = true
		}
	}
	if !found {
		t.Errorf("child attributes = %v, want limiter kind", c.Attributes)
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tracer, exporter := newTestTracer(t, config.TracingConfig{Enabled: true, Sampler: SamplerNever})

	_, span := tracer.Start(context.Background(), "dropped")
	span.End()
	tracer.Flush(context.Background())

	if got := len(exporter.GetSpans()); got != 0 {
		t.Errorf("exported %d spans with never sampler, want 0", got)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{strategy: SamplerAlways},
		{strategy: ""},
		{strategy: SamplerNever},
		{strategy: SamplerRatio, ratio: 0.5},
		{strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{strategy: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			_, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
		})
	}
}

func TestNewWithExporter_NilExporter(t *testing.T) {
	if _, err := NewWithExporter(config.TracingConfig{}, "test", nil); err == nil {
		t.Error("NewWithExporter(nil) error = nil, want error")
	}
}
