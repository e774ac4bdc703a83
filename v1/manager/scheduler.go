package manager

import (
	"context"
	"fmt"
	"time"
)

func (m *Manager) startBackground() {
	m.bgMu.Lock()
	defer m.bgMu.Unlock()

	if m.bgCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.bgCancel = cancel

	if !m.cfg.Backup.DisableSchedule {
		m.bgDone.Add(1)
		go func() {
			defer m.bgDone.Done()
			m.runBackupSchedule(ctx, m.cfg.Backup.InitialDelay, m.cfg.Backup.Interval)
		}()
	}

	if m.cfg.PoolMonitorInterval > 0 {
		m.bgDone.Add(1)
		go func() {
			defer m.bgDone.Done()
			m.pools.MonitorConnections(ctx, m.cfg.PoolMonitorInterval)
		}()
	}

	if m.cfg.ReportStats {
		m.bgDone.Add(1)
		go func() {
			defer m.bgDone.Done()
			m.monitor.Report(ctx)
		}()
	}
}

func (m *Manager) stopBackground() {
	m.bgMu.Lock()
	cancel := m.bgCancel
	m.bgCancel = nil
	m.bgMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.bgDone.Wait()
}

// runBackupSchedule runs Backup after delay and then every interval, measured
// from the end of the previous run, so runs never overlap.
func (m *Manager) runBackupSchedule(ctx context.Context, delay, interval time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			m.scheduledBackup(ctx)
			timer.Reset(interval)
		}
	}
}

func (m *Manager) scheduledBackup(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Scheduled backup panicked", fmt.Errorf("%v", r), nil)
		}
	}()

	results, err := m.Backup(ctx)
	if err != nil {
		m.logger.Error("Scheduled backup failed", err, nil)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	m.logger.Info("Scheduled backup finished", nil, map[string]interface{}{
		"drivers": len(results),
		"failed":  failed,
	})
}
