package sqlite

import "time"

const (
	// DefaultPath is used when Config.Path is empty.
	DefaultPath = "data/dbkit.db"

	// DefaultBusyTimeout is how long a statement waits for a file lock.
	DefaultBusyTimeout = 5 * time.Second

	// DefaultConnectionTimeout bounds waiting for the single pooled connection.
	DefaultConnectionTimeout = 30 * time.Second
)

// Config describes an embedded database file.
type Config struct {
	// Path of the database file. Its directory is created on Connect.
	Path string `yaml:"path"`

	// DisableWAL switches back to the rollback journal.
	DisableWAL bool `yaml:"disable_wal" split_words:"true"`

	BusyTimeout time.Duration `yaml:"busy_timeout" split_words:"true"`

	ConnectionTimeout time.Duration `yaml:"connection_timeout" split_words:"true"`
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = DefaultBusyTimeout
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	return c
}
