package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	traceSpan "go.opentelemetry.io/otel/trace"
)

// StartSpan creates a span that is a child of any span already in ctx.
//
// Example:
//
//	ctx, span := t.StartSpan(ctx, "nightly-backup")
//	defer span.End()
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span) {
	return t.tracer.Tracer("github.com/Aleph-Alpha/dbkit").Start(ctx, name)
}

// RecordErrorOnSpan records err on span and marks the span as failed.
func (t *Tracer) RecordErrorOnSpan(span traceSpan.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds attrs to span. Values other than string, int, int64,
// float64 and bool are stored with fmt.Sprint.
func (t *Tracer) SetAttributes(span traceSpan.Span, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}

	attributes := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			attributes = append(attributes, attribute.String(k, val))
		case int:
			attributes = append(attributes, attribute.Int(k, val))
		case int64:
			attributes = append(attributes, attribute.Int64(k, val))
		case float64:
			attributes = append(attributes, attribute.Float64(k, val))
		case bool:
			attributes = append(attributes, attribute.Bool(k, val))
		default:
			attributes = append(attributes, attribute.String(k, fmt.Sprint(val)))
		}
	}
	span.SetAttributes(attributes...)
}
