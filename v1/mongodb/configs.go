package mongodb

import (
	"fmt"
	"net/url"
	"time"
)

// Config describes a MongoDB deployment and the database the driver uses.
type Config struct {
	// URI, when set, is used verbatim and Host, Port, Username and Password are ignored.
	URI string `yaml:"uri"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// AuthSource is the database holding the user. Default: admin
	AuthSource string `yaml:"auth_source"`

	// Database is the database collections live in. Required.
	Database string `yaml:"database"`

	MaxPoolSize    uint64        `yaml:"max_pool_size"`
	MinPoolSize    uint64        `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// ServerSelectionTimeout bounds how long an operation waits for a usable server.
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`
}

const (
	DefaultHost                   = "localhost"
	DefaultPort                   = 27017
	DefaultAuthSource             = "admin"
	DefaultMaxPoolSize            = 10
	DefaultConnectTimeout         = 10 * time.Second
	DefaultServerSelectionTimeout = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.AuthSource == "" {
		c.AuthSource = DefaultAuthSource
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = DefaultMaxPoolSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ServerSelectionTimeout == 0 {
		c.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	return c
}

// ConnectionURI returns URI or builds a mongodb:// URI from the parts.
func (c Config) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/",
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
		u.RawQuery = url.Values{"authSource": []string{c.AuthSource}}.Encode()
	}
	return u.String()
}
