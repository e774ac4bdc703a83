package mongodb

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (d *Driver) instrument(ctx context.Context, operation, collection string) (context.Context, func(n int64, err error)) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.operation", operation),
			attribute.String("db.mongodb.collection", collection),
			attribute.String("dbkit.driver", d.name),
		),
	)

	return ctx, func(n int64, err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if d.observer == nil {
			return
		}
		d.observer.ObserveOperation(database.OperationContext{
			Driver:    d.name,
			Kind:      database.KindMongoDB,
			Operation: operation,
			Statement: collection,
			Duration:  time.Since(start),
			Err:       err,
			Rows:      n,
		})
	}
}
