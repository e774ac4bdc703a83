package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Aleph-Alpha/dbkit/v1/redis"

// Driver is the key-value backend. It wraps a go-redis client, which keeps its
// own connection pool sized by Config.PoolSize.
//
// Driver implements database.KeyValue and database.Maintainer.
type Driver struct {
	name     string
	cfg      Config
	logger   Logger
	observer database.Observer
	tracer   trace.Tracer

	// mu protects client
	mu     sync.RWMutex
	client *redis.Client
}

var (
	_ database.KeyValue   = (*Driver)(nil)
	_ database.Maintainer = (*Driver)(nil)
)

// NewDriver returns an unconnected driver. A nil log discards output.
//
// Example:
//
//	drv := redis.NewDriver("sessions", redis.Config{Host: "localhost"}, log)
//	if err := drv.Connect(ctx); err != nil {
//		return err
//	}
//	defer drv.Disconnect(ctx)
func NewDriver(name string, cfg Config, log Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Driver{
		name:   name,
		cfg:    cfg.withDefaults(),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

// WithObserver sets the observer for this driver and returns the driver for method chaining.
func (d *Driver) WithObserver(o database.Observer) *Driver {
	d.observer = o
	return d
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) Kind() database.Kind { return database.KindRedis }

// Connect creates the client and verifies the server answers PING.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return nil
	}

	var tlsConfig *tls.Config
	if d.cfg.TLS.Enabled {
		var err error
		tlsConfig, err = createTLSConfig(d.cfg.TLS, d.cfg.Host)
		if err != nil {
			return fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port),
		Username:        d.cfg.Username,
		Password:        d.cfg.Password,
		DB:              d.cfg.DB,
		PoolSize:        d.cfg.PoolSize,
		MinIdleConns:    d.cfg.MinIdleConns,
		ConnMaxLifetime: d.cfg.MaxConnAge,
		PoolTimeout:     d.cfg.PoolTimeout,
		ConnMaxIdleTime: d.cfg.IdleTimeout,
		MaxRetries:      d.cfg.MaxRetries,
		DialTimeout:     d.cfg.DialTimeout,
		ReadTimeout:     d.cfg.ReadTimeout,
		WriteTimeout:    d.cfg.WriteTimeout,
		TLSConfig:       tlsConfig,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connecting to redis %s:%d: %w", d.cfg.Host, d.cfg.Port, err)
	}

	d.client = client
	d.logger.Info("Redis driver connected", nil, map[string]interface{}{
		"driver": d.name,
		"addr":   fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port),
		"db":     d.cfg.DB,
	})
	return nil
}

// Disconnect closes the client. It is safe to call on an unconnected driver.
func (d *Driver) Disconnect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}

	err := d.client.Close()
	d.client = nil
	if err != nil {
		d.logger.Warn("Failed to close Redis client", err, map[string]interface{}{"driver": d.name})
		return err
	}
	return nil
}

func (d *Driver) IsConnected(ctx context.Context) bool {
	c, err := d.conn()
	if err != nil {
		return false
	}
	return c.Ping(ctx).Err() == nil
}

// PoolStats returns the go-redis pool statistics, or nil before Connect.
func (d *Driver) PoolStats() *redis.PoolStats {
	c, err := d.conn()
	if err != nil {
		return nil
	}
	return c.PoolStats()
}

func (d *Driver) conn() (*redis.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.client == nil {
		return nil, fmt.Errorf("%w: %s", database.ErrNotConnected, d.name)
	}
	return d.client, nil
}

// createTLSConfig creates a TLS configuration from the provided config
func createTLSConfig(cfg TLSConfig, defaultServerName string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.ServerName != "" {
		tlsConfig.ServerName = cfg.ServerName
	} else if defaultServerName != "" {
		tlsConfig.ServerName = defaultServerName
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
