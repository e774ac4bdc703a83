package manager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
type: postgres
name: primary
backup:
  dir: /var/backups/dbkit
  interval: 12h
postgres:
  connection:
    host: db.internal
    port: "5433"
    user: app
    db_name: inventory
  connection_details:
    max_open_conns: 20
cache:
  queries:
    max_entries: 50
    ttl: 30s
`

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "database.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "primary", cfg.Name)
	assert.Equal(t, "/var/backups/dbkit", cfg.Backup.Dir)
	assert.Equal(t, 12*time.Hour, cfg.Backup.Interval)
	assert.Equal(t, DefaultBackupInitialDelay, cfg.Backup.InitialDelay)
	assert.Equal(t, "db.internal", cfg.Postgres.Connection.Host)
	assert.Equal(t, 20, cfg.Postgres.ConnectionDetails.MaxOpenConns)
	assert.Equal(t, 50, cfg.Cache.Queries.MaxEntries)
	assert.Equal(t, 30*time.Second, cfg.Cache.Queries.TTL)

	kind, err := cfg.Kind()
	require.NoError(t, err)
	assert.Equal(t, database.KindPostgres, kind)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("DBKIT_TYPE", "mysql")
	t.Setenv("DBKIT_POSTGRES_CONNECTION_HOST", "override.internal")
	t.Setenv("DBKIT_SQLITE_PATH", "/tmp/override.db")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Type)
	assert.Equal(t, "override.internal", cfg.Postgres.Connection.Host)
	assert.Equal(t, "/tmp/override.db", cfg.SQLite.Path)

	kind, err := cfg.Kind()
	require.NoError(t, err)
	assert.Equal(t, database.KindMariaDB, kind)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultType, cfg.Type)
	assert.Equal(t, DefaultName, cfg.Name)
	assert.Equal(t, DefaultBackupDir, cfg.Backup.Dir)
	assert.Equal(t, DefaultBackupInterval, cfg.Backup.Interval)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "type: oracle\n"))
	assert.ErrorIs(t, err, schema.ErrInvalidValue)

	_, err = LoadConfig(writeConfig(t, "mariadb:\n  connection_details:\n    max_open_conns: 5000\n"))
	assert.ErrorIs(t, err, schema.ErrInvalidValue)

	_, err = LoadConfig(writeConfig(t, "type: [not, a, string\n"))
	assert.Error(t, err)
}
