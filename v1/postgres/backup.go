package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/relational"
)

func (d *Dialect) toolArgs() []string {
	c := d.cfg.Connection
	return []string{
		"--host=" + c.Host,
		"--port=" + c.Port,
		"--username=" + c.User,
		"--dbname=" + c.DbName,
		"--no-password",
	}
}

func (d *Dialect) toolEnv() []string {
	return []string{
		"PGPASSWORD=" + d.cfg.Connection.Password,
		"PGSSLMODE=" + d.cfg.Connection.SSLMode,
	}
}

// Backup writes a plain SQL dump with pg_dump. --clean makes the dump drop
// existing objects when it is replayed.
func (d *Dialect) Backup(ctx context.Context, _ *relational.Driver, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	args := append(d.toolArgs(), "--clean", "--if-exists", "--file="+path)
	return database.RunTool(ctx, database.Tool{Name: "pg_dump", Args: args, Env: d.toolEnv()})
}

// Restore replays a pg_dump file with psql, stopping at the first error.
func (d *Dialect) Restore(ctx context.Context, _ *relational.Driver, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}

	args := append(d.toolArgs(), "--set=ON_ERROR_STOP=1", "--quiet", "--file="+path)
	return database.RunTool(ctx, database.Tool{Name: "psql", Args: args, Env: d.toolEnv()})
}
