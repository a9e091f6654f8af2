// Package perf records OpenTelemetry spans in memory so a run can be inspected
// or exported with --perf.
package perf

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcarch/mcarch-editor/internal/constants"
)

var (
	providerMu sync.Mutex
	exporter   = tracetest.NewInMemoryExporter()
	tracer     trace.Tracer
)

func activeTracer() trace.Tracer {
	providerMu.Lock()
	defer providerMu.Unlock()

	if tracer == nil {
		provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		otel.SetTracerProvider(provider)
		tracer = provider.Tracer(constants.AppName)
	}
	return tracer
}

type Span struct {
	span trace.Span
}

type spanConfig struct {
	attributes []attribute.KeyValue
}

type SpanOption func(*spanConfig)

func WithAttributes(attributes ...attribute.KeyValue) SpanOption {
	return func(config *spanConfig) {
		config.attributes = append(config.attributes, attributes...)
	}
}

type EventOption func(*[]attribute.KeyValue)

func WithEventAttributes(attributes ...attribute.KeyValue) EventOption {
	return func(target *[]attribute.KeyValue) {
		*target = append(*target, attributes...)
	}
}

func StartSpan(ctx context.Context, name string, options ...SpanOption) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	config := spanConfig{}
	for _, option := range options {
		option(&config)
	}

	ctx, span := activeTracer().Start(ctx, name, trace.WithAttributes(config.attributes...))
	return ctx, &Span{span: span}
}

func (span *Span) End() {
	if span == nil {
		return
	}
	span.span.End()
}

func (span *Span) SetAttributes(attributes ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.span.SetAttributes(attributes...)
}

func (span *Span) AddEvent(name string, options ...EventOption) {
	if span == nil {
		return
	}
	var attributes []attribute.KeyValue
	for _, option := range options {
		option(&attributes)
	}
	span.span.AddEvent(name, trace.WithAttributes(attributes...))
}

func (span *Span) RecordError(err error) {
	if span == nil || err == nil {
		return
	}
	span.span.RecordError(err)
	span.span.SetAttributes(attribute.Bool("success", false))
}

// SnapshotSpans returns every span ended since the last Reset.
func SnapshotSpans() tracetest.SpanStubs {
	activeTracer()
	return exporter.GetSpans()
}

func Reset() {
	exporter.Reset()
}
