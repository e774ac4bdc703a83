package relational

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrument starts a span for one operation. The returned function ends the
// span and reports the outcome to the observer.
func (d *Driver) instrument(ctx context.Context, operation, statement string) (context.Context, func(rows int64, err error)) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", string(d.Kind())),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
			attribute.String("dbkit.driver", d.name),
		),
	)

	return ctx, func(rows int64, err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int64("db.rows", rows))
		}
		span.End()

		if d.observer == nil {
			return
		}
		d.observer.ObserveOperation(database.OperationContext{
			Driver:    d.name,
			Kind:      d.Kind(),
			Operation: operation,
			Statement: statement,
			Duration:  time.Since(start),
			Err:       err,
			Rows:      rows,
		})
	}
}
