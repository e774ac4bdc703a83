package tracer

import (
	"context"

	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides the *Tracer and shuts it down when the application stops.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config { return tracer.Config{ServiceName: "billing"} }),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		func(cfg Config, log *logger.Logger) (*Tracer, error) {
			return NewClient(cfg, log)
		},
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle flushes and stops the provider on application stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.logger != nil {
				tracer.logger.Info("Shutting down tracer", nil, nil)
			}
			return tracer.Shutdown(ctx)
		},
	})
}
