package redis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/redis/go-redis/v9"
)

// DatabaseSize returns the number of keys in the selected database (DBSIZE).
func (d *Driver) DatabaseSize(ctx context.Context) (size int64, err error) {
	c, err := d.conn()
	if err != nil {
		return 0, err
	}

	ctx, done := d.observeOperation(ctx, "dbsize", "")
	defer func() { done(size, err) }()

	return c.DBSize(ctx).Result()
}

// TableSize is not defined for a keyspace.
func (d *Driver) TableSize(context.Context, string) (int64, error) {
	return 0, database.Unsupported(d, "TableSize")
}

// RowCount counts the keys under the "table" namespace, i.e. matching "table:*".
func (d *Driver) RowCount(ctx context.Context, table string) (int64, error) {
	keys, err := d.Scan(ctx, table+":*")
	if err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}

// OptimizeTable does nothing; Redis has no per-namespace housekeeping.
func (d *Driver) OptimizeTable(context.Context, string) error {
	return nil
}

// Backup triggers BGSAVE, waits until LASTSAVE moves past its previous value
// and copies the server's RDB file to path. The RDB file must be readable
// from this process, so the server has to share a filesystem with it.
func (d *Driver) Backup(ctx context.Context, path string) (err error) {
	c, err := d.conn()
	if err != nil {
		return err
	}

	ctx, done := d.observeOperation(ctx, database.OpBackup, path)
	defer func() { done(0, err) }()

	rdb, err := d.rdbPath(ctx)
	if err != nil {
		return err
	}

	before, err := c.LastSave(ctx).Result()
	if err != nil {
		return fmt.Errorf("reading LASTSAVE: %w", err)
	}

	// LASTSAVE has second resolution: start the save in a later second so
	// that its completion is always visible as an increase.
	if wait := time.Until(time.Unix(before+1, 0)); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	if err := c.BgSave(ctx).Err(); err != nil {
		return fmt.Errorf("starting BGSAVE: %w", err)
	}
	if err := d.waitForSave(ctx, before); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	return database.CopyFile(rdb, path)
}

func (d *Driver) waitForSave(ctx context.Context, before int64) error {
	c, err := d.conn()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.BackupTimeout)
	defer cancel()

	ticker := time.NewTicker(d.cfg.BackupPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for BGSAVE: %w", ctx.Err())
		case <-ticker.C:
			last, err := c.LastSave(ctx).Result()
			if err != nil {
				return fmt.Errorf("reading LASTSAVE: %w", err)
			}
			if last > before {
				return nil
			}
		}
	}
}

// Restore copies path over the server's RDB file. Redis only loads the file
// at startup, so the server must be restarted for the data to appear.
func (d *Driver) Restore(ctx context.Context, path string) (err error) {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}

	ctx, done := d.observeOperation(ctx, database.OpRestore, path)
	defer func() { done(0, err) }()

	rdb, err := d.rdbPath(ctx)
	if err != nil {
		return err
	}
	if err := database.CopyFile(path, rdb); err != nil {
		return err
	}

	d.logger.Warn("Redis dump restored; restart the server to load it", nil, map[string]interface{}{
		"driver": d.name,
		"file":   rdb,
	})
	return nil
}

// rdbPath resolves dir/dbfilename from the server configuration.
func (d *Driver) rdbPath(ctx context.Context) (string, error) {
	c, err := d.conn()
	if err != nil {
		return "", err
	}

	dir, err := configValue(ctx, c, "dir")
	if err != nil {
		return "", err
	}
	file, err := configValue(ctx, c, "dbfilename")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}

func configValue(ctx context.Context, c *redis.Client, parameter string) (string, error) {
	values, err := c.ConfigGet(ctx, parameter).Result()
	if err != nil {
		return "", fmt.Errorf("CONFIG GET %s: %w", parameter, err)
	}
	v, ok := values[parameter]
	if !ok || v == "" {
		return "", fmt.Errorf("CONFIG GET %s: no value", parameter)
	}
	return v, nil
}
