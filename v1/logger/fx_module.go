package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *Logger built from a logger.Config supplied by the application
// and flushes it when the fx app stops.
//
//	app := fx.New(
//	    fx.Supply(logger.Config{Level: logger.Info, ServiceName: "inventory"}),
//	    logger.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs buffered entries on shutdown.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// stderr returns EINVAL on sync for some terminals; nothing to flush then.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
