package mariadb

import "time"

const (
	DefaultPort    = "3306"
	DefaultCharset = "utf8mb4"
	DefaultLoc     = "Local"

	// DefaultMaxOpenConns caps the pool when ConnectionDetails.MaxOpenConns is zero.
	DefaultMaxOpenConns = 10

	// DefaultDialTimeout bounds establishing a TCP connection, so an unreachable
	// server is reported quickly.
	DefaultDialTimeout = "5s"
)

// Config describes a MariaDB or MySQL endpoint and its pool.
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

	// Charset defaults to utf8mb4.
	Charset string `yaml:"charset"`
	// Loc is the time zone for parsed DATETIME values; defaults to Local.
	Loc string `yaml:"loc"`
	// TLS is passed to the tls DSN parameter, e.g. "true" or "skip-verify".
	TLS string `yaml:"tls"`

	Timeout      string `yaml:"timeout"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
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
	if c.Connection.Charset == "" {
		c.Connection.Charset = DefaultCharset
	}
	if c.Connection.Loc == "" {
		c.Connection.Loc = DefaultLoc
	}
	if c.Connection.Timeout == "" {
		c.Connection.Timeout = DefaultDialTimeout
	}
	if c.ConnectionDetails.MaxOpenConns <= 0 {
		c.ConnectionDetails.MaxOpenConns = DefaultMaxOpenConns
	}
	return c
}
