package mongodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Aleph-Alpha/dbkit/v1/mongodb"

// Logger is the logging surface the driver needs. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Driver is the document backend. Collections play the role of tables.
type Driver struct {
	name     string
	cfg      Config
	logger   Logger
	observer database.Observer
	tracer   trace.Tracer

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

var (
	_ database.DocumentStore = (*Driver)(nil)
	_ database.SchemaEditor  = (*Driver)(nil)
	_ database.Maintainer    = (*Driver)(nil)
)

// NewDriver returns an unconnected driver. A nil log discards output.
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

// WithObserver registers an observer that receives every operation.
func (d *Driver) WithObserver(o database.Observer) *Driver {
	d.observer = o
	return d
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) Kind() database.Kind { return database.KindMongoDB }

// Connect opens the client and pings the primary.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return nil
	}
	if d.cfg.Database == "" {
		return fmt.Errorf("mongodb driver %q: no database configured", d.name)
	}

	opts := options.Client().
		ApplyURI(d.cfg.ConnectionURI()).
		SetMaxPoolSize(d.cfg.MaxPoolSize).
		SetMinPoolSize(d.cfg.MinPoolSize).
		SetConnectTimeout(d.cfg.ConnectTimeout).
		SetServerSelectionTimeout(d.cfg.ServerSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return fmt.Errorf("pinging mongodb: %w", err)
	}

	d.client = client
	d.db = client.Database(d.cfg.Database)
	d.logger.Info("MongoDB driver connected", nil, map[string]interface{}{
		"driver":   d.name,
		"database": d.cfg.Database,
	})
	return nil
}

func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}

	err := d.client.Disconnect(ctx)
	d.client, d.db = nil, nil
	if err != nil {
		d.logger.Warn("Failed to disconnect MongoDB client", err, map[string]interface{}{"driver": d.name})
		return err
	}
	return nil
}

func (d *Driver) IsConnected(ctx context.Context) bool {
	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()

	if client == nil {
		return false
	}
	return client.Ping(ctx, readpref.Primary()) == nil
}

func (d *Driver) database() (*mongo.Database, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, fmt.Errorf("%w: %s", database.ErrNotConnected, d.name)
	}
	return d.db, nil
}
