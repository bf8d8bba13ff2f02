package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestNewWithWriter_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("searchsync", "info", &buf)
	l.Info("hello")

	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got := out["service"]; got != "searchsync" {
		t.Errorf("service = %v, want %q", got, "searchsync")
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "warn", &buf)

	l.Info("filtered")
	if buf.Len() != 0 {
		t.Errorf("info line emitted at warn level: %s", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn line not emitted at warn level")
	}
}

func TestWithContext_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "req-123")
	cl := WithContext(ctx, l)
	cl.Info("hello")

	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got := out["correlation_id"]; got != "req-123" {
		t.Errorf("correlation_id = %v, want %q", got, "req-123")
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	cl := WithContext(context.Background(), l)
	cl.Info("no span")

	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if _, ok := out["trace_id"]; ok {
		t.Error("trace_id should not be present when no span in context")
	}
	if _, ok := out["span_id"]; ok {
		t.Error("span_id should not be present when no span in context")
	}
}

func TestWithContext_WithValidSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	cl := WithContext(ctx, l)
	cl.Info("with span")

	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got := out["trace_id"]; got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v, want %q", got, "4bf92f3577b34da6a3ce929d0e0e4736")
	}
	if got := out["span_id"]; got != "00f067aa0ba902b7" {
		t.Errorf("span_id = %v, want %q", got, "00f067aa0ba902b7")
	}
}

func TestFromContext_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := NewContext(context.Background(), l)
	got := FromContext(ctx)
	if got != l {
		t.Error("FromContext should return the logger stored via NewContext")
	}
}

func TestFromContext_WithoutLogger(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil {
		t.Error("FromContext should return a non-nil fallback logger")
	}
}
