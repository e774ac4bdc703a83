package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BackupTimeLayout formats the timestamp in backup file names.
const BackupTimeLayout = "20060102_150405"

// BackupResult reports the outcome for one driver.
type BackupResult struct {
	Driver string
	Path   string
	// Object is the uploaded object key, empty when no upload happened.
	Object string
	Err    error
	// UploadErr is set when the local backup succeeded but the upload did not.
	UploadErr error
}

// BackupPath is the file a driver's backup is written to for timestamp t.
func (m *Manager) BackupPath(driver string, t time.Time) string {
	return filepath.Join(m.cfg.Backup.Dir, fmt.Sprintf("%s_%s.backup", driver, t.Format(BackupTimeLayout)))
}

// Backup writes a backup of every registered driver. A failing driver is
// logged and recorded in its result; the others still run. The returned error
// is only set when the backup directory cannot be created.
func (m *Manager) Backup(ctx context.Context) ([]BackupResult, error) {
	m.backupMu.Lock()
	defer m.backupMu.Unlock()

	if err := os.MkdirAll(m.cfg.Backup.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory %s: %w", m.cfg.Backup.Dir, err)
	}

	stamp := m.now()
	results := make([]BackupResult, 0, len(m.Drivers()))
	for _, name := range m.Drivers() {
		drv, err := m.Driver(name)
		if err != nil {
			continue
		}

		res := BackupResult{Driver: name, Path: m.BackupPath(name, stamp)}
		if res.Err = drv.Backup(ctx, res.Path); res.Err != nil {
			m.logger.Error("Backup failed", res.Err, map[string]interface{}{
				"driver": name,
				"path":   res.Path,
			})
			results = append(results, res)
			continue
		}

		m.logger.Info("Backup written", nil, map[string]interface{}{
			"driver": name,
			"path":   res.Path,
		})

		if m.uploader != nil {
			res.Object, res.UploadErr = m.uploader.Upload(ctx, res.Path)
			if res.UploadErr != nil {
				m.logger.Warn("Backup upload failed", res.UploadErr, map[string]interface{}{
					"driver": name,
					"path":   res.Path,
				})
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Restore loads a backup file into one driver. Errors are returned as is.
func (m *Manager) Restore(ctx context.Context, driver, path string) error {
	drv, err := m.Driver(driver)
	if err != nil {
		return err
	}
	return drv.Restore(ctx, path)
}
