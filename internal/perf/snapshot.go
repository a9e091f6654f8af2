package perf

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type SpanSnapshot struct {
	Name         string                 `json:"name"`
	TraceID      string                 `json:"trace_id"`
	SpanID       string                 `json:"span_id"`
	ParentSpanID string                 `json:"parent_span_id,omitempty"`
	StartTime    time.Time              `json:"start_time"`
	EndTime      time.Time              `json:"end_time"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
	Events       []EventSnapshot        `json:"events,omitempty"`
}

type EventSnapshot struct {
	Name       string                 `json:"name"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

func (span SpanSnapshot) Duration() time.Duration {
	if span.EndTime.Before(span.StartTime) {
		return 0
	}
	return span.EndTime.Sub(span.StartTime)
}

func (span SpanSnapshot) HasEvent(name string) bool {
	for _, event := range span.Events {
		if event.Name == name {
			return true
		}
	}
	return false
}

func GetSpans() []SpanSnapshot {
	stubs := SnapshotSpans()
	out := make([]SpanSnapshot, 0, len(stubs))
	for _, stub := range stubs {
		out = append(out, snapshotSpan(stub))
	}
	return out
}

func FindSpanByName(spans []SpanSnapshot, name string) (SpanSnapshot, bool) {
	for _, span := range spans {
		if span.Name == name {
			return span, true
		}
	}
	return SpanSnapshot{}, false
}

func snapshotSpan(stub tracetest.SpanStub) SpanSnapshot {
	out := SpanSnapshot{
		Name:       stub.Name,
		TraceID:    stub.SpanContext.TraceID().String(),
		SpanID:     stub.SpanContext.SpanID().String(),
		StartTime:  stub.StartTime,
		EndTime:    stub.EndTime,
		Attributes: attributesToMap(stub.Attributes),
	}
	if stub.Parent.IsValid() {
		out.ParentSpanID = stub.Parent.SpanID().String()
	}
	for _, event := range stub.Events {
		out.Events = append(out.Events, EventSnapshot{
			Name:       event.Name,
			Timestamp:  event.Time,
			Attributes: attributesToMap(event.Attributes),
		})
	}
	return out
}

func attributesToMap(attributes []attribute.KeyValue) map[string]interface{} {
	if len(attributes) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(attributes))
	for _, kv := range attributes {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}
