package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/Aleph-Alpha/dbkit/v1/relational"

// Logger is the logging surface the driver needs. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Driver is a SQL backend bound to one Dialect and one pool.
type Driver struct {
	name     string
	dialect  Dialect
	pools    *pool.Registry
	logger   Logger
	observer database.Observer
	tracer   trace.Tracer

	mu        sync.Mutex
	connected bool
	poolID    string
	txConn    *pool.Conn
	tx        *gorm.DB
}

var (
	_ database.Relational   = (*Driver)(nil)
	_ database.SchemaEditor = (*Driver)(nil)
	_ database.Maintainer   = (*Driver)(nil)
)

// NewDriver returns an unconnected driver. A nil log discards output.
func NewDriver(name string, dialect Dialect, pools *pool.Registry, log Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Driver{
		name:    name,
		dialect: dialect,
		pools:   pools,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// WithObserver registers an observer that receives every operation.
// Call it before the driver is shared between goroutines.
func (d *Driver) WithObserver(o database.Observer) *Driver {
	d.observer = o
	return d
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) Kind() database.Kind { return d.dialect.Kind() }

// Dialect returns the dialect the driver was built with.
func (d *Driver) Dialect() Dialect { return d.dialect }

// PoolID returns the id of the pool the driver uses, or "" before Connect.
func (d *Driver) PoolID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.poolID
}

// Connect creates or joins the pool for the dialect's endpoint and verifies
// that a connection can be obtained.
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return nil
	}

	if err := d.dialect.Prepare(ctx); err != nil {
		return fmt.Errorf("%s driver %q: %w", d.Kind(), d.name, err)
	}

	id, err := d.pools.Create(d.dialect.PoolConfig())
	if err != nil {
		return fmt.Errorf("%s driver %q: %w", d.Kind(), d.name, err)
	}

	conn, err := d.pools.Acquire(ctx, id)
	if err != nil {
		return fmt.Errorf("%s driver %q: %w", d.Kind(), d.name, err)
	}
	err = conn.Raw().PingContext(ctx)
	conn.Release()
	if err != nil {
		return fmt.Errorf("%s driver %q: ping failed: %w", d.Kind(), d.name, err)
	}

	d.poolID = id
	d.connected = true

	d.logger.Info("database driver connected", nil, map[string]interface{}{
		"driver": d.name,
		"kind":   string(d.Kind()),
		"pool":   id,
	})
	return nil
}

// Disconnect rolls back an open transaction and detaches from the pool. The
// pool itself stays open for other drivers until the registry closes it.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.tx != nil {
		err = d.tx.Rollback().Error
		d.releaseTxLocked()
		if err != nil {
			d.logger.Warn("rolled back open transaction with error on disconnect", err, map[string]interface{}{"driver": d.name})
		}
	}

	if d.connected {
		d.logger.Info("database driver disconnected", nil, map[string]interface{}{"driver": d.name})
	}
	d.connected = false
	return err
}

// IsConnected pings the backend on the transaction's connection when one is
// open, and on a freshly acquired connection otherwise.
func (d *Driver) IsConnected(ctx context.Context) bool {
	d.mu.Lock()
	connected, txConn, id := d.connected, d.txConn, d.poolID
	d.mu.Unlock()

	if !connected {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if txConn != nil {
		return txConn.Raw().PingContext(pingCtx) == nil
	}

	conn, err := d.pools.Acquire(pingCtx, id)
	if err != nil {
		return false
	}
	defer conn.Release()
	return conn.Raw().PingContext(pingCtx) == nil
}

// Offline disconnects, closes the driver's pool, runs fn and reconnects. It is
// meant for file-level restores of embedded databases; other drivers sharing
// the pool have to reconnect afterwards.
func (d *Driver) Offline(ctx context.Context, fn func() error) error {
	if err := d.Disconnect(ctx); err != nil {
		return err
	}
	if err := d.pools.Close(d.dialect.PoolConfig().ID()); err != nil {
		return err
	}

	fnErr := fn()
	if err := d.Connect(ctx); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

// WithConnection runs fn on a connection held exclusively for its duration: the
// transaction's connection when one is open, a freshly acquired one otherwise.
func (d *Driver) WithConnection(ctx context.Context, fn func(conn *sql.Conn) error) error {
	d.mu.Lock()
	connected, txConn, id := d.connected, d.txConn, d.poolID
	d.mu.Unlock()

	if !connected {
		return fmt.Errorf("%w: %s", database.ErrNotConnected, d.name)
	}
	if txConn != nil {
		return fn(txConn.Raw())
	}

	conn, err := d.pools.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn.Raw())
}

// session returns a gorm handle for one operation and the function that
// releases it. Inside a transaction the handle is the transaction itself.
func (d *Driver) session(ctx context.Context) (*gorm.DB, func(), error) {
	d.mu.Lock()
	connected, tx, id := d.connected, d.tx, d.poolID
	d.mu.Unlock()

	if !connected {
		return nil, nil, fmt.Errorf("%w: %s", database.ErrNotConnected, d.name)
	}
	if tx != nil {
		return tx.WithContext(ctx), func() {}, nil
	}

	conn, err := d.pools.Acquire(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return conn.Session(ctx), conn.Release, nil
}

func (d *Driver) statementError(statement string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &database.StatementError{Statement: statement, Err: err}
	}
	return &database.StatementError{
		Statement: statement,
		Err:       err,
		Class:     d.dialect.TranslateError(err),
	}
}
