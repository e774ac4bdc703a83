package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Logger is the logging surface the registry needs. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Registry owns every pool of a process, keyed by Config.ID.
type Registry struct {
	mu     sync.RWMutex
	pools  map[string]*Pool
	opens  singleflight.Group
	logger Logger
}

// Pool is one bounded set of physical connections to a single endpoint.
type Pool struct {
	id    string
	cfg   Config
	db    *gorm.DB
	sqlDB *sql.DB
	sem   *semaphore.Weighted

	active  atomic.Int64
	waiting atomic.Int64
	closed  atomic.Bool
}

// NewRegistry returns an empty registry. A nil log discards output.
func NewRegistry(log Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Registry{
		pools:  make(map[string]*Pool),
		logger: log,
	}
}

// Create returns the id of the pool for cfg, opening it on first use.
// Concurrent calls for the same endpoint converge on one pool. Opening happens
// outside the registry lock, so other pools stay usable meanwhile.
func (r *Registry) Create(cfg Config) (string, error) {
	id := cfg.ID()
	if r.has(id) {
		return id, nil
	}

	if cfg.Dialector == nil {
		return "", fmt.Errorf("pool %s: no dialector configured", id)
	}

	_, err, _ := r.opens.Do(id, func() (interface{}, error) {
		// a previous flight may have finished between has and Do
		if r.has(id) {
			return nil, nil
		}

		p, err := open(id, cfg.withDefaults())
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.pools[id] = p
		r.mu.Unlock()

		r.logger.Info("connection pool created", nil, map[string]interface{}{
			"pool":     id,
			"max_open": p.cfg.MaxOpen,
			"min_idle": p.cfg.MinIdle,
		})
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Registry) has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pools[id]
	return ok
}

func open(id string, cfg Config) (*Pool, error) {
	db, err := gorm.Open(cfg.Dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("pool %s: failed to open connection: %w", id, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("pool %s: failed to get database instance: %w", id, err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxOpen)
	sqlDB.SetConnMaxIdleTime(cfg.IdleTimeout)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	p := &Pool{
		id:    id,
		cfg:   cfg,
		db:    db,
		sqlDB: sqlDB,
		sem:   semaphore.NewWeighted(int64(cfg.MaxOpen)),
	}
	p.warm()
	return p, nil
}

// warm opens MinIdle connections and returns them to the idle set.
func (p *Pool) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnectionTimeout)
	defer cancel()

	conns := make([]*sql.Conn, 0, p.cfg.MinIdle)
	for i := 0; i < p.cfg.MinIdle; i++ {
		c, err := p.sqlDB.Conn(ctx)
		if err != nil {
			break
		}
		conns = append(conns, c)
	}
	for _, c := range conns {
		_ = c.Close()
	}
}

// Acquire checks out one connection from the pool identified by id.
// It fails with ErrPoolNotFound for unknown ids and with ErrConnectionTimeout
// when none frees up within the pool's ConnectionTimeout.
func (r *Registry) Acquire(ctx context.Context, id string) (*Conn, error) {
	p, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return p.acquire(ctx)
}

func (r *Registry) get(id string) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[id]
	if !ok || p.closed.Load() {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
	}
	return p, nil
}

func (p *Pool) acquire(ctx context.Context) (*Conn, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectionTimeout)
	defer cancel()

	p.waiting.Add(1)
	err := p.sem.Acquire(waitCtx, 1)
	p.waiting.Add(-1)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: pool %s after %s", ErrConnectionTimeout, p.id, p.cfg.ConnectionTimeout)
	}

	if p.closed.Load() {
		p.sem.Release(1)
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, p.id)
	}

	raw, err := p.sqlDB.Conn(waitCtx)
	if err != nil {
		p.sem.Release(1)
		return nil, fmt.Errorf("pool %s: failed to obtain connection: %w", p.id, err)
	}

	p.active.Add(1)
	return &Conn{pool: p, raw: raw}, nil
}

// Stats returns a snapshot of the pool identified by id.
func (r *Registry) Stats(id string) (Stats, error) {
	p, err := r.get(id)
	if err != nil {
		return Stats{}, err
	}
	return p.stats(), nil
}

// AllStats returns a snapshot of every open pool keyed by id.
func (r *Registry) AllStats() map[string]Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Stats, len(r.pools))
	for id, p := range r.pools {
		out[id] = p.stats()
	}
	return out
}

// IDs lists the open pools in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Pool) stats() Stats {
	s := p.sqlDB.Stats()
	return Stats{
		Active:  int(p.active.Load()),
		Idle:    s.Idle,
		Total:   s.OpenConnections,
		Waiting: int(p.waiting.Load()),
		Max:     p.cfg.MaxOpen,
	}
}

// Close shuts the pool down and forgets it. Connections still checked out are
// closed when released. Closing an unknown id is a no-op.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	p, ok := r.pools[id]
	delete(r.pools, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if err := p.close(); err != nil {
		return fmt.Errorf("pool %s: %w", id, err)
	}
	r.logger.Info("connection pool closed", nil, map[string]interface{}{"pool": id})
	return nil
}

// CloseAll closes every pool and reports all failures together.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, id := range r.IDs() {
		if err := r.Close(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.sqlDB.Close()
}
