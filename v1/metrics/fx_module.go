package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides *Metrics and MetricsCollector and runs the /metrics
// server for the lifetime of the application.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    fx.Provide(func() metrics.Config {
//	        return metrics.Config{Address: ":9090", ServiceName: "billing"}
//	    }),
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			func(m *Metrics) *Metrics { return m },
			fx.As(new(MetricsCollector)),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle starts the metrics HTTP server in the background
// and shuts it down gracefully when the application stops.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("Starting Prometheus metrics server", nil, map[string]interface{}{
					"address": m.Server.Addr,
				})

				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Error starting Prometheus metrics server", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Prometheus metrics server", nil, nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
