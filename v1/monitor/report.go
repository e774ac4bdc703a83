package monitor

import (
	"context"
	"time"
)

// Report logs a summary every ReportInterval until ctx is cancelled.
func (m *Monitor) Report(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.log(m.Stats())
		}
	}
}

func (m *Monitor) log(st Stats) {
	fields := map[string]interface{}{
		"uptime":  st.Uptime.Round(time.Second).String(),
		"queries": st.Queries,
		"updates": st.Updates,
		"errors":  st.Errors,
	}
	for id, p := range st.Pools {
		fields["pool."+id] = map[string]int{"active": p.Active, "idle": p.Idle, "waiting": p.Waiting, "max": p.Max}
	}
	for name, c := range st.Caches {
		fields["cache."+name+".hit_rate"] = c.HitRate
	}
	m.logger.Info("Database statistics", nil, fields)

	for _, s := range st.Slowest {
		m.logger.Warn("Slow statement", nil, map[string]interface{}{
			"statement": s.Statement,
			"count":     s.Count,
			"average":   s.Average.String(),
			"max":       s.Max.String(),
		})
	}
}
