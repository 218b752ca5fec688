package callapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/linnemanlabs/matri/internal/triage"
)

func TestGetTriage_SpanAttributes(t *testing.T) {
	// Not parallel: swaps the global OTel tracer provider.
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	old := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(old) })

	r, store := newTestRouter(t, nil)

	record := &triage.Record{
		ID:     "01JNSPAN",
		CallID: "call-span",
		Verdict: triage.Verdict{
			Tier:   triage.TierRed,
			Action: "EMERGENCY: Go to the nearest hospital immediately. Call 108 ambulance.",
			Reason: "Heavy bleeding during pregnancy can indicate placental abruption or placenta previa.",
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.PutRecord(context.Background(), record); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}

	ctx, span := tp.Tracer("test").Start(context.Background(), "http.server")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/01JNSPAN", http.NoBody).WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	span.End()

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}

	attrs := make(map[attribute.Key]attribute.Value, len(spans[0].Attributes))
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if v, ok := attrs["matri.triage.id"]; !ok || v.AsString() != "01JNSPAN" {
		t.Errorf("matri.triage.id = %v, want 01JNSPAN", v.Emit())
	}
	if v, ok := attrs["matri.triage.risk_tier"]; !ok || v.AsString() != "RED" {
		t.Errorf("matri.triage.risk_tier = %v, want RED", v.Emit())
	}
}
