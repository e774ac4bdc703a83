package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/relational"
)

var companions = []string{"-wal", "-shm"}

// Backup checkpoints the WAL and copies the database file and its companions
// to path while holding the only connection, so no statement runs in between.
func (d *Dialect) Backup(ctx context.Context, drv *relational.Driver, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	return drv.WithConnection(ctx, func(conn *sql.Conn) error {
		if !d.cfg.DisableWAL {
			if _, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
				return fmt.Errorf("checkpointing WAL: %w", err)
			}
		}

		if err := database.CopyFile(d.cfg.Path, path); err != nil {
			return err
		}
		for _, suffix := range companions {
			if err := copyIfExists(d.cfg.Path+suffix, path+suffix); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore closes the pool, replaces the database files with the backup and
// reconnects. Companion files absent from the backup are removed so that a
// stale WAL is not replayed over the restored file.
func (d *Dialect) Restore(ctx context.Context, drv *relational.Driver, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}

	return drv.Offline(ctx, func() error {
		if err := database.CopyFile(path, d.cfg.Path); err != nil {
			return err
		}
		for _, suffix := range companions {
			src, dst := path+suffix, d.cfg.Path+suffix
			if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
				if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("removing stale %s: %w", dst, err)
				}
				continue
			}
			if err := database.CopyFile(src, dst); err != nil {
				return err
			}
		}
		return nil
	})
}

func copyIfExists(src, dst string) error {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return database.CopyFile(src, dst)
}
