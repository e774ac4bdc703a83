package redis

import "time"

// Config defines how the key-value driver connects to a standalone Redis server.
type Config struct {
	// Host is the Redis server hostname or IP address
	// Default: "localhost"
	Host string `yaml:"host"`

	// Port is the Redis server port
	// Default: 6379
	Port int `yaml:"port"`

	// Username is the Redis username for ACL authentication (Redis 6.0+)
	Username string `yaml:"username"`

	// Password is the Redis password for authentication
	Password string `yaml:"password"`

	// DB is the Redis database number to use
	// Default: 0
	DB int `yaml:"db"`

	// PoolSize is the maximum number of socket connections
	// Default: 10 per CPU (set by go-redis)
	PoolSize int `yaml:"pool_size"`

	// MinIdleConns is the minimum number of idle connections to maintain
	MinIdleConns int `yaml:"min_idle_conns"`

	// MaxConnAge is the maximum duration a connection can be reused
	MaxConnAge time.Duration `yaml:"max_conn_age"`

	// PoolTimeout is the amount of time to wait for a connection from the pool
	// Default: ReadTimeout + 1 second (set by go-redis)
	PoolTimeout time.Duration `yaml:"pool_timeout"`

	// IdleTimeout is the amount of time after which idle connections are closed
	// Default: 5 minutes
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// MaxRetries is the maximum number of retries before giving up
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// DialTimeout is the timeout for establishing new connections
	// Default: 5 seconds
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// ReadTimeout is the timeout for socket reads
	// Default: 3 seconds
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the timeout for socket writes
	// Default: ReadTimeout
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// BackupTimeout bounds how long Backup waits for BGSAVE to finish
	// Default: 5 minutes
	BackupTimeout time.Duration `yaml:"backup_timeout"`

	// BackupPollInterval is how often LASTSAVE is polled during Backup
	// Default: 200 milliseconds
	BackupPollInterval time.Duration `yaml:"backup_poll_interval"`

	// TLS contains TLS/SSL configuration
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS/SSL configuration parameters.
type TLSConfig struct {
	// Enabled determines whether to use TLS/SSL for the connection
	Enabled bool `yaml:"enabled"`

	// CACertPath is the file path to the CA certificate for verifying the server
	CACertPath string `yaml:"ca_cert_path"`

	// ClientCertPath is the file path to the client certificate
	ClientCertPath string `yaml:"client_cert_path"`

	// ClientKeyPath is the file path to the client certificate's private key
	ClientKeyPath string `yaml:"client_key_path"`

	// InsecureSkipVerify controls whether to skip verification of the server's certificate
	// WARNING: Setting this to true is insecure and should only be used in testing
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// ServerName is used to verify the hostname on the returned certificates
	// If empty, the Host from the main config is used
	ServerName string `yaml:"server_name"`
}

// Logger is an interface that matches the dbkit/v1/logger.Logger
type Logger interface {
	Error(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}

// Default values for configuration
const (
	DefaultHost               = "localhost"
	DefaultPort               = 6379
	DefaultIdleTimeout        = 5 * time.Minute
	DefaultMaxRetries         = 3
	DefaultDialTimeout        = 5 * time.Second
	DefaultReadTimeout        = 3 * time.Second
	DefaultBackupTimeout      = 5 * time.Minute
	DefaultBackupPollInterval = 200 * time.Millisecond

	// scanBatch is the COUNT hint passed to SCAN.
	scanBatch = 1000
)

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.BackupTimeout == 0 {
		c.BackupTimeout = DefaultBackupTimeout
	}
	if c.BackupPollInterval == 0 {
		c.BackupPollInterval = DefaultBackupPollInterval
	}
	return c
}
