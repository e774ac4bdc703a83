package mongodb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"gopkg.in/yaml.v3"
)

// toolOptions is the --config file read by mongodump and mongorestore. The
// connection URI carries the credentials, so it is kept off the command line.
type toolOptions struct {
	URI string `yaml:"uri"`
}

// writeToolConfig writes the connection URI to a 0600 file in dir. The caller
// removes it once the tool has exited.
func (d *Driver) writeToolConfig(dir string) (string, error) {
	body, err := yaml.Marshal(toolOptions{URI: d.cfg.ConnectionURI()})
	if err != nil {
		return "", fmt.Errorf("encoding mongo tool config: %w", err)
	}

	f, err := os.CreateTemp(dir, "mongo-tool-*.yaml")
	if err != nil {
		return "", fmt.Errorf("creating mongo tool config: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing mongo tool config: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing mongo tool config: %w", err)
	}
	return f.Name(), nil
}

func (d *Driver) dumpTool(configPath, archive string) database.Tool {
	return database.Tool{
		Name: "mongodump",
		Args: []string{
			"--config=" + configPath,
			"--db=" + d.cfg.Database,
			"--archive=" + archive,
			"--gzip",
		},
	}
}

func (d *Driver) restoreTool(configPath, archive string) database.Tool {
	return database.Tool{
		Name: "mongorestore",
		Args: []string{
			"--config=" + configPath,
			"--nsInclude=" + d.cfg.Database + ".*",
			"--archive=" + archive,
			"--gzip",
			"--drop",
		},
	}
}

func (d *Driver) runTool(ctx context.Context, build func(configPath string) database.Tool) error {
	configPath, err := d.writeToolConfig("")
	if err != nil {
		return err
	}
	defer os.Remove(configPath)

	return database.RunTool(ctx, build(configPath))
}

// Backup writes a gzipped mongodump archive of the configured database.
func (d *Driver) Backup(ctx context.Context, path string) (err error) {
	ctx, done := d.instrument(ctx, database.OpBackup, path)
	defer func() { done(0, err) }()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}

	return d.runTool(ctx, func(configPath string) database.Tool {
		return d.dumpTool(configPath, path)
	})
}

// Restore replays an archive written by Backup, dropping each collection
// before it is restored.
func (d *Driver) Restore(ctx context.Context, path string) (err error) {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup file: %w", err)
	}

	ctx, done := d.instrument(ctx, database.OpRestore, path)
	defer func() { done(0, err) }()

	return d.runTool(ctx, func(configPath string) database.Tool {
		return d.restoreTool(configPath, path)
	})
}
