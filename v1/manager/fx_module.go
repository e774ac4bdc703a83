package manager

import (
	"context"

	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/metrics"
	"go.uber.org/fx"
)

// FXModule provides *Manager, connects it on start and shuts it down on stop.
// A *metrics.Metrics in the graph is picked up to export monitor counters.
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Provide(func() (manager.Config, error) { return manager.LoadConfig("config/database.yml") }),
//	    manager.FXModule,
//	)
var FXModule = fx.Module("dbkit",
	fx.Provide(NewManager),
	fx.Invoke(RegisterManagerLifecycle),
)

// Params are the dependencies of NewManager.
type Params struct {
	fx.In

	Config  Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// NewManager builds a Manager from fx-provided dependencies.
func NewManager(p Params) *Manager {
	var opts []Option
	if p.Metrics != nil {
		opts = append(opts, WithMetrics(p.Metrics))
	}
	return New(p.Config, p.Logger, opts...)
}

// RegisterManagerLifecycle runs Init on start and Shutdown on stop.
func RegisterManagerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return m.Init(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return m.Shutdown(ctx)
		},
	})
}
