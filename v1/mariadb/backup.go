package mariadb

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
		"--user=" + c.User,
		"--default-character-set=" + c.Charset,
	}
}

func (d *Dialect) toolEnv() []string {
	return []string{"MYSQL_PWD=" + d.cfg.Connection.Password}
}

// Backup dumps the database with mysqldump in one consistent snapshot.
func (d *Dialect) Backup(ctx context.Context, _ *relational.Driver, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	args := append(d.toolArgs(),
		"--single-transaction",
		"--routines",
		"--triggers",
		"--result-file="+path,
		d.cfg.Connection.DbName,
	)
	return database.RunTool(ctx, database.Tool{Name: "mysqldump", Args: args, Env: d.toolEnv()})
}

// Restore replays a mysqldump file with the mysql client.
func (d *Dialect) Restore(ctx context.Context, _ *relational.Driver, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer in.Close()

	args := append(d.toolArgs(), d.cfg.Connection.DbName)
	return database.RunTool(ctx, database.Tool{Name: "mysql", Args: args, Env: d.toolEnv(), Stdin: in})
}
