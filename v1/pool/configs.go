package pool

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultMaxOpen caps open connections for server backends.
	DefaultMaxOpen = 10

	// DefaultMinIdle is the number of connections opened eagerly and kept idle.
	DefaultMinIdle = 2

	// DefaultConnectionTimeout bounds how long Acquire waits for a free connection.
	DefaultConnectionTimeout = 30 * time.Second

	// DefaultIdleTimeout closes connections idle for longer than this.
	DefaultIdleTimeout = 10 * time.Minute

	// DefaultMaxLifetime recycles connections older than this.
	DefaultMaxLifetime = 30 * time.Minute
)

// Config describes one pool. Kind, Host, Port, Database and File identify the
// endpoint; the remaining fields tune the pool. Zero values take the defaults above.
type Config struct {
	Kind     string
	Host     string
	Port     string
	Database string
	// File is set for embedded databases and replaces host, port and database in the id.
	File string

	// Dialector opens the physical connections. It is not part of the id.
	Dialector gorm.Dialector

	MaxOpen           int
	MinIdle           int
	ConnectionTimeout time.Duration
	IdleTimeout       time.Duration
	MaxLifetime       time.Duration
}

// ID derives the pool identifier from the endpoint fields.
func (c Config) ID() string {
	if c.File != "" {
		return fmt.Sprintf("%s-%s", c.Kind, c.File)
	}
	return fmt.Sprintf("%s-%s-%s-%s", c.Kind, c.Host, c.Port, c.Database)
}

func (c Config) withDefaults() Config {
	if c.MaxOpen <= 0 {
		c.MaxOpen = DefaultMaxOpen
	}
	if c.MinIdle < 0 {
		c.MinIdle = 0
	}
	if c.MinIdle == 0 && c.MaxOpen > 1 {
		c.MinIdle = DefaultMinIdle
	}
	if c.MinIdle > c.MaxOpen {
		c.MinIdle = c.MaxOpen
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.MaxLifetime <= 0 {
		c.MaxLifetime = DefaultMaxLifetime
	}
	return c
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	// Active connections are checked out through Acquire.
	Active int
	Idle   int
	// Total is the number of open physical connections.
	Total   int
	Waiting int
	Max     int
}
