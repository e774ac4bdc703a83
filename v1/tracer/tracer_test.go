package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tr, err := NewClient(Config{ServiceName: "test", AppEnv: "test"}, nil, trace.WithSpanProcessor(recorder))
	require.NoError(t, err)
	defer tr.Shutdown(context.Background())

	ctx, span := tr.StartSpan(context.Background(), "outer")
	tr.SetAttributes(span, map[string]interface{}{"rows": 3, "table": "users", "other": []int{1}})

	_, child := otel.Tracer("driver").Start(ctx, "db.query")
	tr.RecordErrorOnSpan(child, errors.New("boom"))
	child.End()
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "db.query", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Len(t, ended[1].Attributes(), 3)
}

func TestShutdownNil(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}
