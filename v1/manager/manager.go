package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/cache"
	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/metrics"
	"github.com/Aleph-Alpha/dbkit/v1/minio"
	"github.com/Aleph-Alpha/dbkit/v1/monitor"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDriverNotFound is returned by Driver for names that were never registered.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrDefaultNotInitialized is returned by DefaultDriver before Init succeeded.
	ErrDefaultNotInitialized = errors.New("default driver not initialized")

	// ErrShutdown is returned by operations on a manager that was shut down.
	ErrShutdown = errors.New("manager is shut down")
)

// Logger is the logging surface of the manager. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Uploader copies a finished backup file somewhere else and returns its key.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Option customises a Manager.
type Option func(*Manager)

// WithMetrics exports monitor counters through the collector.
func WithMetrics(c metrics.MetricsCollector) Option {
	return func(m *Manager) { m.collector = c }
}

// WithUploader sends every successful backup to u. It takes precedence over
// Config.Minio.
func WithUploader(u Uploader) Option {
	return func(m *Manager) { m.uploader = u }
}

// WithFactory replaces the constructor used for one backend kind.
func WithFactory(kind database.Kind, f Factory) Option {
	return func(m *Manager) { m.factories[kind] = f }
}

// Manager owns the pool registry, the drivers, the caches and the monitor.
type Manager struct {
	cfg       Config
	logger    Logger
	pools     *pool.Registry
	caches    *cache.Caches
	monitor   *monitor.Monitor
	collector metrics.MetricsCollector
	uploader  Uploader
	factories map[database.Kind]Factory
	now       func() time.Time

	mu          sync.RWMutex
	drivers     map[string]database.Driver
	defaultName string
	closed      bool

	// backupMu serialises Backup runs.
	backupMu sync.Mutex

	bgMu     sync.Mutex
	bgCancel context.CancelFunc
	bgDone   sync.WaitGroup
}

// New builds a manager from cfg. Nothing connects until Init. A nil log
// discards output.
func New(cfg Config, log Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Manager{
		cfg:       cfg.withDefaults(),
		logger:    log,
		pools:     pool.NewRegistry(log),
		factories: defaultFactories(),
		drivers:   make(map[string]database.Driver),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.caches = cache.NewCaches(m.cfg.Cache.Queries, m.cfg.Cache.Counts)
	m.monitor = monitor.New(m.cfg.Monitor, m.collector, log).
		WithPools(m.pools).
		WithCaches(m.caches)
	return m
}

// Init connects the configured default driver. When a client/server backend
// cannot be reached the manager falls back to the embedded SQLite backend and
// logs a warning; only a SQLite failure is returned.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return ErrShutdown
	}

	name := m.cfg.Name
	drv, err := m.connectDefault(ctx, name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.drivers[name] = drv
	m.defaultName = name
	m.mu.Unlock()

	m.logger.Info("Database manager initialized", nil, map[string]interface{}{
		"driver": name,
		"kind":   string(drv.Kind()),
	})

	if m.uploader == nil && m.cfg.Minio.Enabled() {
		client, err := minio.NewClient(ctx, m.cfg.Minio, m.logger)
		if err != nil {
			m.logger.Warn("Backup upload disabled, object store is unavailable", err, map[string]interface{}{
				"endpoint": m.cfg.Minio.Endpoint,
			})
		} else {
			m.uploader = client
		}
	}

	m.startBackground()
	return nil
}

func (m *Manager) connectDefault(ctx context.Context, name string) (database.Driver, error) {
	kind, err := m.cfg.Kind()
	if err == nil {
		var drv database.Driver
		drv, err = m.open(ctx, name, kind)
		if err == nil {
			return drv, nil
		}
		if kind == database.KindSQLite {
			return nil, err
		}
	}

	m.logger.Warn("Default database is unavailable, falling back to sqlite", err, map[string]interface{}{
		"driver": name,
		"type":   m.cfg.Type,
		"path":   m.cfg.SQLite.Path,
	})
	return m.open(ctx, name, database.KindSQLite)
}

// open builds and connects a driver without registering it.
func (m *Manager) open(ctx context.Context, name string, kind database.Kind) (database.Driver, error) {
	factory, ok := m.factories[kind]
	if !ok {
		return nil, fmt.Errorf("no factory for %s", kind)
	}
	drv, err := factory(name, m.cfg, Deps{Pools: m.pools, Logger: m.logger, Observer: m.monitor})
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()
	if err := drv.Connect(cctx); err != nil {
		_ = drv.Disconnect(ctx)
		return nil, err
	}
	return drv, nil
}

// Open returns the driver registered as name, or creates, connects and
// registers one of the given kind. No fallback applies here.
func (m *Manager) Open(ctx context.Context, name string, kind database.Kind) (database.Driver, error) {
	if drv, err := m.Driver(name); err == nil {
		return drv, nil
	}

	drv, err := m.open(ctx, name, kind)
	if err != nil {
		return nil, err
	}

	registered, added := m.Register(drv)
	if !added {
		_ = drv.Disconnect(ctx)
	}
	return registered, nil
}

// Register adds a connected driver under its name. If the name is taken the
// existing driver is returned with false.
func (m *Manager) Register(drv database.Driver) (database.Driver, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.drivers[drv.Name()]; ok {
		return existing, false
	}
	m.drivers[drv.Name()] = drv
	return drv, true
}

// Driver looks a driver up by name.
func (m *Manager) Driver(name string) (database.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	drv, ok := m.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, name)
	}
	return drv, nil
}

// DefaultDriver returns the driver connected by Init.
func (m *Manager) DefaultDriver() (database.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.defaultName == "" {
		return nil, ErrDefaultNotInitialized
	}
	drv, ok := m.drivers[m.defaultName]
	if !ok {
		return nil, ErrDefaultNotInitialized
	}
	return drv, nil
}

// Drivers returns the registered driver names in sorted order.
func (m *Manager) Drivers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.drivers))
	for name := range m.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) Pools() *pool.Registry { return m.pools }

func (m *Manager) Caches() *cache.Caches { return m.caches }

func (m *Manager) Monitor() *monitor.Monitor { return m.monitor }

// Stats is shorthand for Monitor().Stats().
func (m *Manager) Stats() monitor.Stats { return m.monitor.Stats() }

// Shutdown stops background work, disconnects every driver and closes all
// pools. Disconnect failures are logged and not returned.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopBackground()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	drivers := make([]database.Driver, 0, len(m.drivers))
	for _, drv := range m.drivers {
		drivers = append(drivers, drv)
	}
	m.drivers = make(map[string]database.Driver)
	m.defaultName = ""
	m.mu.Unlock()

	var g errgroup.Group
	for _, drv := range drivers {
		g.Go(func() error {
			if err := drv.Disconnect(ctx); err != nil {
				m.logger.Error("Failed to disconnect driver", err, map[string]interface{}{
					"driver": drv.Name(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	m.caches.InvalidateAll()

	if err := m.pools.CloseAll(); err != nil {
		m.logger.Error("Failed to close connection pools", err, nil)
		return err
	}
	m.logger.Info("Database manager shut down", nil, nil)
	return nil
}
