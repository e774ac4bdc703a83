package monitor

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/cache"
	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/logger"
	"github.com/Aleph-Alpha/dbkit/v1/metrics"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePools map[string]pool.Stats

func (f fakePools) AllStats() map[string]pool.Stats { return f }

func op(operation, stmt string, d time.Duration, err error) database.OperationContext {
	return database.OperationContext{
		Driver:    "main",
		Kind:      database.KindSQLite,
		Operation: operation,
		Statement: stmt,
		Duration:  d,
		Err:       err,
	}
}

func TestCounters(t *testing.T) {
	m := New(Config{}, nil, nil)

	m.ObserveOperation(op(database.OpQuery, "SELECT 1", time.Millisecond, nil))
	m.ObserveOperation(op(database.OpQuery, "SELECT 1", time.Millisecond, errors.New("x")))
	m.ObserveOperation(op(database.OpUpdate, "UPDATE t", time.Millisecond, nil))
	m.ObserveOperation(op(database.OpBatchUpdate, "INSERT", time.Millisecond, nil))
	m.ObserveOperation(op(database.OpCommit, "", time.Millisecond, nil))

	st := m.Stats()
	assert.Equal(t, int64(2), st.Queries)
	assert.Equal(t, int64(2), st.Updates)
	assert.Equal(t, int64(1), st.Errors)
	assert.Positive(t, st.Uptime)

	m.Reset()
	st = m.Stats()
	assert.Zero(t, st.Queries)
	assert.Zero(t, st.Updates)
	assert.Zero(t, st.Errors)
	assert.Empty(t, st.Slowest)
}

func TestSlowestStatements(t *testing.T) {
	m := New(Config{SlowThreshold: 100 * time.Millisecond, TopN: 2}, nil, nil)

	// never crosses the threshold
	m.ObserveOperation(op(database.OpQuery, "fast", 90*time.Millisecond, nil))
	// one slow sample qualifies, average 110ms
	m.ObserveOperation(op(database.OpQuery, "sometimes", 20*time.Millisecond, nil))
	m.ObserveOperation(op(database.OpQuery, "sometimes", 200*time.Millisecond, nil))
	// average 300ms
	m.ObserveOperation(op(database.OpQuery, "slow", 300*time.Millisecond, nil))
	// average 150ms
	m.ObserveOperation(op(database.OpUpdate, "medium", 150*time.Millisecond, nil))

	slowest := m.Stats().Slowest
	require.Len(t, slowest, 2)
	assert.Equal(t, "slow", slowest[0].Statement)
	assert.Equal(t, 300*time.Millisecond, slowest[0].Average)
	assert.Equal(t, "medium", slowest[1].Statement)
}

func TestSampleRingKeepsRecentDurations(t *testing.T) {
	s := newSamples(2)
	s.add(10 * time.Second)
	s.add(time.Second)
	s.add(3 * time.Second)

	assert.Equal(t, int64(3), s.count)
	assert.Equal(t, 10*time.Second, s.max)
	assert.Equal(t, 2*time.Second, s.average())
}

func TestSources(t *testing.T) {
	caches := cache.NewCaches(cache.Config{}, cache.Config{})
	caches.Counts.Put("users", 1)
	_, _ = caches.Counts.Get("users")

	m := New(Config{}, nil, nil).
		WithPools(fakePools{"sqlite-app.db": {Active: 1, Max: 1}}).
		WithCaches(caches)

	st := m.Stats()
	assert.Equal(t, 1, st.Pools["sqlite-app.db"].Active)
	assert.Equal(t, uint64(1), st.Caches["counts"].Hits)

	assert.Nil(t, New(Config{}, nil, nil).Stats().Pools)
}

func TestPrometheusExport(t *testing.T) {
	prom := metrics.NewMetrics(metrics.Config{ServiceName: "test"})
	m := New(Config{}, prom, nil).WithPools(fakePools{"p": {Active: 2, Max: 4}})

	m.ObserveOperation(op(database.OpQuery, "SELECT 1", time.Millisecond, nil))
	m.ObserveOperation(op(database.OpUpdate, "UPDATE t", time.Millisecond, errors.New("x")))
	m.Stats()

	rec := httptest.NewRecorder()
	prom.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `dbkit_queries_total{driver="main",kind="sqlite",service="test"} 1`)
	assert.Contains(t, string(body), `dbkit_errors_total{driver="main",kind="sqlite",operation="update",service="test"} 1`)
	assert.Contains(t, string(body), `dbkit_pool_connections{pool="p",service="test",state="active"} 2`)
}

func TestReportLogsUntilCancelled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(Config{ReportInterval: 10 * time.Millisecond, SlowThreshold: time.Millisecond}, nil, logger.Wrap(zap.New(core)))
	m.ObserveOperation(op(database.OpQuery, "SELECT slow", 5*time.Millisecond, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Report(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Slow statement").Len() > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report did not stop")
	}
	assert.Positive(t, logs.FilterMessage("Database statistics").Len())
}
