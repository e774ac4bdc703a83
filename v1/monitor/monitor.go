package monitor

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/cache"
	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/metrics"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger is the logging surface of the monitor. *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// PoolSource reports connection pool statistics keyed by pool id.
type PoolSource interface {
	AllStats() map[string]pool.Stats
}

// CacheSource reports cache statistics keyed by cache name.
type CacheSource interface {
	Stats() map[string]cache.Stats
}

var (
	queryOps  = map[string]bool{database.OpQuery: true, "get": true, "scan": true, "count": true}
	updateOps = map[string]bool{
		database.OpUpdate: true, database.OpBatchUpdate: true,
		"set": true, "del": true, "insert_one": true, "insert_many": true, "delete_many": true,
	}
)

// Monitor collects operation counters and durations from drivers. It
// implements database.Observer; register it with each driver's WithObserver.
type Monitor struct {
	cfg    Config
	logger Logger
	start  time.Time

	queries atomic.Int64
	updates atomic.Int64
	errors  atomic.Int64

	mu      sync.Mutex
	samples map[string]*samples

	sources sync.RWMutex
	pools   PoolSource
	caches  CacheSource

	prom *promMetrics
}

var _ database.Observer = (*Monitor)(nil)

// New returns a monitor. collector may be nil to skip Prometheus export; a nil
// log discards output.
func New(cfg Config, collector metrics.MetricsCollector, log Logger) *Monitor {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Monitor{
		cfg:     cfg.withDefaults(),
		logger:  log,
		start:   time.Now(),
		samples: make(map[string]*samples),
	}
	if collector != nil {
		m.prom = newPromMetrics(collector)
	}
	return m
}

// WithPools includes pool statistics in Stats.
func (m *Monitor) WithPools(p PoolSource) *Monitor {
	m.sources.Lock()
	m.pools = p
	m.sources.Unlock()
	return m
}

// WithCaches includes cache statistics in Stats.
func (m *Monitor) WithCaches(c CacheSource) *Monitor {
	m.sources.Lock()
	m.caches = c
	m.sources.Unlock()
	return m
}

// ObserveOperation records one driver call.
func (m *Monitor) ObserveOperation(op database.OperationContext) {
	switch {
	case queryOps[op.Operation]:
		m.queries.Add(1)
	case updateOps[op.Operation]:
		m.updates.Add(1)
	}
	if op.Err != nil {
		m.errors.Add(1)
	}

	key := op.Statement
	if key == "" {
		key = op.Operation
	}

	m.mu.Lock()
	s, ok := m.samples[key]
	if !ok {
		s = newSamples(m.cfg.MaxSamples)
		m.samples[key] = s
	}
	s.add(op.Duration)
	m.mu.Unlock()

	if m.prom != nil {
		m.prom.observe(op)
	}
}

// SlowStatement summarises one statement that crossed the slow threshold.
type SlowStatement struct {
	Statement string
	Count     int64
	Average   time.Duration
	Max       time.Duration
}

// Stats is a snapshot of everything the monitor knows.
type Stats struct {
	Uptime  time.Duration
	Queries int64
	Updates int64
	Errors  int64
	// Slowest lists up to TopN slow statements by descending average duration.
	Slowest []SlowStatement
	// Pools is keyed by pool id; only pool-backed drivers appear.
	Pools  map[string]pool.Stats
	Caches map[string]cache.Stats
}

// Stats returns a snapshot and refreshes the pool gauges.
func (m *Monitor) Stats() Stats {
	st := Stats{
		Uptime:  time.Since(m.start),
		Queries: m.queries.Load(),
		Updates: m.updates.Load(),
		Errors:  m.errors.Load(),
		Slowest: m.slowest(),
	}

	m.sources.RLock()
	pools, caches := m.pools, m.caches
	m.sources.RUnlock()

	if pools != nil {
		st.Pools = pools.AllStats()
		if m.prom != nil {
			m.prom.setPools(st.Pools)
		}
	}
	if caches != nil {
		st.Caches = caches.Stats()
	}
	return st
}

func (m *Monitor) slowest() []SlowStatement {
	m.mu.Lock()
	var out []SlowStatement
	for stmt, s := range m.samples {
		if s.max <= m.cfg.SlowThreshold {
			continue
		}
		out = append(out, SlowStatement{
			Statement: stmt,
			Count:     s.count,
			Average:   s.average(),
			Max:       s.max,
		})
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].Statement < out[j].Statement
	})
	if len(out) > m.cfg.TopN {
		out = out[:m.cfg.TopN]
	}
	return out
}

// Reset clears counters and samples. Uptime and Prometheus counters are kept.
func (m *Monitor) Reset() {
	m.queries.Store(0)
	m.updates.Store(0)
	m.errors.Store(0)

	m.mu.Lock()
	m.samples = make(map[string]*samples)
	m.mu.Unlock()
}

// samples keeps the most recent durations of one statement in a ring.
type samples struct {
	ring  []time.Duration
	next  int
	count int64
	max   time.Duration
}

func newSamples(size int) *samples {
	return &samples{ring: make([]time.Duration, 0, size)}
}

func (s *samples) add(d time.Duration) {
	if len(s.ring) < cap(s.ring) {
		s.ring = append(s.ring, d)
	} else {
		s.ring[s.next] = d
		s.next = (s.next + 1) % len(s.ring)
	}
	s.count++
	if d > s.max {
		s.max = d
	}
}

func (s *samples) average() time.Duration {
	if len(s.ring) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.ring {
		sum += d
	}
	return sum / time.Duration(len(s.ring))
}

type promMetrics struct {
	queries  *prometheus.CounterVec
	updates  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pools    *prometheus.GaugeVec
}

func newPromMetrics(c metrics.MetricsCollector) *promMetrics {
	return &promMetrics{
		queries:  c.CreateCounter("dbkit_queries_total", "Read operations executed by drivers.", []string{"driver", "kind"}),
		updates:  c.CreateCounter("dbkit_updates_total", "Write operations executed by drivers.", []string{"driver", "kind"}),
		errors:   c.CreateCounter("dbkit_errors_total", "Driver operations that failed.", []string{"driver", "kind", "operation"}),
		duration: c.CreateHistogram("dbkit_statement_duration_seconds", "Driver operation duration.", []string{"driver", "operation"}, nil),
		pools:    c.CreateGauge("dbkit_pool_connections", "Connections per pool and state.", []string{"pool", "state"}),
	}
}

func (p *promMetrics) observe(op database.OperationContext) {
	kind := string(op.Kind)
	switch {
	case queryOps[op.Operation]:
		p.queries.WithLabelValues(op.Driver, kind).Inc()
	case updateOps[op.Operation]:
		p.updates.WithLabelValues(op.Driver, kind).Inc()
	}
	if op.Err != nil {
		p.errors.WithLabelValues(op.Driver, kind, op.Operation).Inc()
	}
	p.duration.WithLabelValues(op.Driver, op.Operation).Observe(op.Duration.Seconds())
}

func (p *promMetrics) setPools(stats map[string]pool.Stats) {
	for id, s := range stats {
		p.pools.WithLabelValues(id, "active").Set(float64(s.Active))
		p.pools.WithLabelValues(id, "idle").Set(float64(s.Idle))
		p.pools.WithLabelValues(id, "waiting").Set(float64(s.Waiting))
		p.pools.WithLabelValues(id, "max").Set(float64(s.Max))
	}
}
