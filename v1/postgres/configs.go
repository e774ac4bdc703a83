package postgres

import "time"

const (
	DefaultPort    = "5432"
	DefaultSSLMode = "disable"
	DefaultSchema  = "public"

	// DefaultMaxOpenConns caps the pool when ConnectionDetails.MaxOpenConns is zero.
	DefaultMaxOpenConns = 10

	// DefaultConnectTimeout is the libpq connect_timeout, in seconds.
	DefaultConnectTimeout = 5
)

// Config describes a PostgreSQL endpoint and its pool.
type Config struct {
	Connection        Connection        `yaml:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details"`
}

// Connection holds the DSN parts.
type Connection struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DbName   string `yaml:"db_name" split_words:"true"`
	SSLMode  string `yaml:"ssl_mode" split_words:"true"`
	// Schema is used by TableExists, Tables and TableSchema; defaults to public.
	Schema string `yaml:"schema"`
	// ConnectTimeout in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`
}

// ConnectionDetails tunes the pool. Zero values take the pool package defaults.
type ConnectionDetails struct {
	MaxOpenConns      int           `yaml:"max_open_conns" split_words:"true"`
	MinIdleConns      int           `yaml:"min_idle_conns"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `yaml:"conn_max_idle_time"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

func (c Config) withDefaults() Config {
	if c.Connection.Port == "" {
		c.Connection.Port = DefaultPort
	}
	if c.Connection.SSLMode == "" {
		c.Connection.SSLMode = DefaultSSLMode
	}
	if c.Connection.Schema == "" {
		c.Connection.Schema = DefaultSchema
	}
	if c.Connection.ConnectTimeout <= 0 {
		c.Connection.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ConnectionDetails.MaxOpenConns <= 0 {
		c.ConnectionDetails.MaxOpenConns = DefaultMaxOpenConns
	}
	return c
}
