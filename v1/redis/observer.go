package redis

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// observeOperation starts a span and returns the function that ends it and
// notifies the observer, if one is configured.
//
// Notes:
//   - command: the Redis command or driver operation name
//   - resource: the key, pattern or file involved
func (d *Driver) observeOperation(ctx context.Context, command, resource string) (context.Context, func(n int64, err error)) {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "redis."+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", command),
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
			Kind:      database.KindRedis,
			Operation: command,
			Statement: resource,
			Duration:  time.Since(start),
			Err:       err,
			Rows:      n,
		})
	}
}
