package manager

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/cache"
	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/mariadb"
	"github.com/Aleph-Alpha/dbkit/v1/minio"
	"github.com/Aleph-Alpha/dbkit/v1/mongodb"
	"github.com/Aleph-Alpha/dbkit/v1/monitor"
	"github.com/Aleph-Alpha/dbkit/v1/postgres"
	"github.com/Aleph-Alpha/dbkit/v1/redis"
	"github.com/Aleph-Alpha/dbkit/v1/schema"
	"github.com/Aleph-Alpha/dbkit/v1/sqlite"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment override, e.g. DBKIT_TYPE=postgres.
	EnvPrefix = "dbkit"

	DefaultType               = "sqlite"
	DefaultName               = "main"
	DefaultBackupDir          = "backups"
	DefaultBackupInitialDelay = time.Hour
	DefaultBackupInterval     = 24 * time.Hour
	DefaultConnectTimeout     = 10 * time.Second

	// MaxPoolSize bounds every configured pool size.
	MaxPoolSize = 1000
)

// Config is the complete configuration of a Manager.
type Config struct {
	// Type selects the default backend: sqlite, mariadb (mysql), postgres, redis or mongodb.
	Type string `yaml:"type"`
	// Name is the registry name of the default driver.
	Name string `yaml:"name"`

	// ConnectTimeout bounds connecting the default driver in Init.
	ConnectTimeout time.Duration `yaml:"connect_timeout" split_words:"true"`

	Backup BackupConfig `yaml:"backup"`

	// PoolMonitorInterval enables periodic pings of every pool when positive.
	PoolMonitorInterval time.Duration `yaml:"pool_monitor_interval" split_words:"true"`

	SQLite   sqlite.Config   `yaml:"sqlite"`
	MariaDB  mariadb.Config  `yaml:"mariadb"`
	Postgres postgres.Config `yaml:"postgres"`
	Redis    redis.Config    `yaml:"redis"`
	MongoDB  mongodb.Config  `yaml:"mongodb"`

	Cache   CacheConfig    `yaml:"cache"`
	Monitor monitor.Config `yaml:"monitor"`
	// ReportStats logs the monitor's statistics every Monitor.ReportInterval.
	ReportStats bool `yaml:"report_stats" split_words:"true"`

	// Minio receives a copy of every local backup when Endpoint is set.
	Minio minio.Config `yaml:"minio"`
}

// BackupConfig controls where and when backups are written.
type BackupConfig struct {
	Dir string `yaml:"dir"`
	// DisableSchedule turns off the background backup task.
	DisableSchedule bool          `yaml:"disable_schedule" split_words:"true"`
	InitialDelay    time.Duration `yaml:"initial_delay" split_words:"true"`
	Interval        time.Duration `yaml:"interval"`
}

// CacheConfig sizes the query-result and count caches.
type CacheConfig struct {
	Queries cache.Config `yaml:"queries"`
	Counts  cache.Config `yaml:"counts"`
}

// configFields declares the validated settings of a Config.
var configFields = []schema.Field{
	{
		Name:     "type",
		Kind:     schema.String,
		Default:  DefaultType,
		Required: true,
		Validate: schema.OneOf("sqlite", "sqlite3", "mysql", "mariadb", "postgres", "postgresql", "redis", "mongodb", "mongo"),
	},
	{Name: "mariadb.pool-size", Kind: schema.Int, Default: mariadb.DefaultMaxOpenConns, Validate: schema.IntRange(0, MaxPoolSize)},
	{Name: "postgres.pool-size", Kind: schema.Int, Default: postgres.DefaultMaxOpenConns, Validate: schema.IntRange(0, MaxPoolSize)},
	{Name: "redis.pool-size", Kind: schema.Int, Default: 0, Validate: schema.IntRange(0, MaxPoolSize)},
	{Name: "mongodb.pool-size", Kind: schema.Int, Default: 0, Validate: schema.IntRange(0, MaxPoolSize)},
}

func (c Config) withDefaults() Config {
	if c.Type == "" {
		c.Type = DefaultType
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = DefaultBackupDir
	}
	if c.Backup.InitialDelay <= 0 {
		c.Backup.InitialDelay = DefaultBackupInitialDelay
	}
	if c.Backup.Interval <= 0 {
		c.Backup.Interval = DefaultBackupInterval
	}
	return c
}

func (c Config) values() map[string]any {
	return map[string]any{
		"type":               c.Type,
		"mariadb.pool-size":  c.MariaDB.ConnectionDetails.MaxOpenConns,
		"postgres.pool-size": c.Postgres.ConnectionDetails.MaxOpenConns,
		"redis.pool-size":    c.Redis.PoolSize,
		"mongodb.pool-size":  c.MongoDB.MaxPoolSize,
	}
}

// Validate checks the backend type and every pool size.
func (c Config) Validate() error {
	values := c.values()
	var errs []error
	for _, f := range configFields {
		if _, err := f.Coerce(values[f.Name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Kind resolves the configured default backend.
func (c Config) Kind() (database.Kind, error) {
	return database.ParseKind(c.Type)
}

// LoadConfig reads the YAML file at path, when it exists, and applies DBKIT_*
// environment overrides on top. The result is validated.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
