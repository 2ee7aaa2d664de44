package tracer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Enabled() {
		t.Error("disabled config produced an enabled provider")
	}

	_, span := Start(context.Background(), p.Tracer(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer should produce non-recording spans")
	}
	End(span, nil)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_EnabledExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{Enabled: true, ServiceName: "fintrackr-sessiond", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := Start(context.Background(), p.Tracer(), "session.create")
	End(span, nil)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "session.create") {
		t.Errorf("exported output missing span name: %s", buf.String())
	}
}

func TestEnd_RecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	p := NewWithProcessor(rec, nil)

	_, span := Start(context.Background(), p.Tracer(), "session.revoke", attribute.Int64("user_id", 7))
	End(span, errors.New("store down"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "session.revoke" {
		t.Errorf("name = %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if len(s.Events()) == 0 {
		t.Error("error event not recorded")
	}
	if len(s.Attributes()) != 1 || s.Attributes()[0].Value.AsInt64() != 7 {
		t.Errorf("attributes = %v", s.Attributes())
	}
}
