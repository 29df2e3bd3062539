package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for application spans
const TracerName = "smartinvoice"

const (
	SpanAttrOwnerID       = "owner_id"
	SpanAttrDraftID       = "draft_id"
	SpanAttrInvoiceID     = "invoice_id"
	SpanAttrInvoiceNumber = "invoice_number"
	SpanAttrItemCount     = "item_count"
	SpanAttrSnapshotID    = "snapshot_id"
	SpanAttrStrategy      = "match_strategy"
)

// Typed span attributes, so call sites cannot mix up keys and values.

func OwnerID(id uuid.UUID) attribute.KeyValue { return attribute.String(SpanAttrOwnerID, id.String()) }

func DraftID(id uuid.UUID) attribute.KeyValue { return attribute.String(SpanAttrDraftID, id.String()) }

func InvoiceID(id uuid.UUID) attribute.KeyValue { return attribute.String(SpanAttrInvoiceID, id.String()) }

func SnapshotID(id uuid.UUID) attribute.KeyValue { return attribute.String(SpanAttrSnapshotID, id.String()) }

func InvoiceNumber(n string) attribute.KeyValue { return attribute.String(SpanAttrInvoiceNumber, n) }

func ItemCount(n int) attribute.KeyValue { return attribute.Int(SpanAttrItemCount, n) }

func Strategy(name string) attribute.KeyValue { return attribute.String(SpanAttrStrategy, name) }

// StartServiceSpan starts an internal span named {service}.{method}.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "draft", "confirm", telemetry.DraftID(id))
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on span and marks it failed. nil is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
