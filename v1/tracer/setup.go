package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger is the logging surface of the tracer. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Tracer owns the process-wide OpenTelemetry TracerProvider. Drivers obtain
// their tracers from the global provider, so installing a Tracer is enough to
// get a span per statement.
type Tracer struct {
	tracer *trace.TracerProvider
	logger Logger
}

// NewClient builds the provider, installs it globally together with the
// W3C trace-context and baggage propagators and returns it.
//
// Example:
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "billing", EnableExport: true}, log)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(ctx)
func NewClient(cfg Config, log Logger, opts ...trace.TracerProviderOption) (*Tracer, error) {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
		if err != nil {
			return nil, fmt.Errorf("cannot initiate trace exporter: %w", err)
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	options = append(options, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))
	options = append(options, opts...)

	tp := trace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if log != nil {
		log.Info("Tracer initialized", nil, map[string]interface{}{
			"service": cfg.ServiceName,
			"export":  cfg.EnableExport,
		})
	}
	return &Tracer{tracer: tp, logger: log}, nil
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}
