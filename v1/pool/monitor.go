package pool

import (
	"context"
	"time"
)

// MonitorConnections pings every pool each interval until ctx is done, logging
// endpoints that stop answering and again once they recover.
func (r *Registry) MonitorConnections(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	unhealthy := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range r.IDs() {
				err := r.healthCheck(ctx, id)
				switch {
				case err != nil && !unhealthy[id]:
					unhealthy[id] = true
					r.logger.Warn("connection pool health check failed", err, map[string]interface{}{"pool": id})
				case err == nil && unhealthy[id]:
					delete(unhealthy, id)
					r.logger.Info("connection pool recovered", nil, map[string]interface{}{"pool": id})
				}
			}
		}
	}
}

func (r *Registry) healthCheck(ctx context.Context, id string) error {
	p, err := r.get(id)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.sqlDB.PingContext(pingCtx)
}
