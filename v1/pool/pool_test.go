package pool

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// slowDialector delays Initialize to stand in for a server that is slow to
// accept connections.
type slowDialector struct {
	gorm.Dialector
	delay time.Duration
}

func (d slowDialector) Initialize(db *gorm.DB) error {
	time.Sleep(d.delay)
	return d.Dialector.Initialize(db)
}

func sqliteConfig(t *testing.T, maxOpen int) Config {
	t.Helper()
	file := filepath.Join(t.TempDir(), "pool.db")
	return Config{
		Kind:              "sqlite",
		File:              file,
		Dialector:         sqlite.Open(fmt.Sprintf("file:%s?_busy_timeout=5000", file)),
		MaxOpen:           maxOpen,
		ConnectionTimeout: 200 * time.Millisecond,
	}
}

func TestConfigID(t *testing.T) {
	server := Config{Kind: "mariadb", Host: "db", Port: "3306", Database: "app"}
	assert.Equal(t, "mariadb-db-3306-app", server.ID())

	embedded := Config{Kind: "sqlite", File: "/data/app.db", Host: "ignored"}
	assert.Equal(t, "sqlite-/data/app.db", embedded.ID())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultMaxOpen, cfg.MaxOpen)
	assert.Equal(t, DefaultMinIdle, cfg.MinIdle)
	assert.Equal(t, DefaultConnectionTimeout, cfg.ConnectionTimeout)

	single := Config{MaxOpen: 1, MinIdle: 5}.withDefaults()
	assert.Equal(t, 1, single.MinIdle)
}

func TestCreateIsIdempotent(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.CloseAll()

	cfg := sqliteConfig(t, 1)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = reg.Create(cfg)
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, cfg.ID(), ids[i])
	}
	assert.Equal(t, []string{cfg.ID()}, reg.IDs())
}

func TestAcquireUnknownPool(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Acquire(context.Background(), "sqlite-nowhere")
	assert.ErrorIs(t, err, ErrPoolNotFound)

	_, err = reg.Stats("sqlite-nowhere")
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestAcquireTimesOutWhenExhausted(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.CloseAll()

	id, err := reg.Create(sqliteConfig(t, 1))
	require.NoError(t, err)

	ctx := context.Background()
	held, err := reg.Acquire(ctx, id)
	require.NoError(t, err)

	stats, err := reg.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Max)

	start := time.Now()
	_, err = reg.Acquire(ctx, id)
	assert.ErrorIs(t, err, ErrConnectionTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	held.Release()
	held.Release()

	again, err := reg.Acquire(ctx, id)
	require.NoError(t, err)
	again.Release()

	stats, err = reg.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Active)
}

func TestAcquireSucceedsWhenReleasedWhileWaiting(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.CloseAll()

	cfg := sqliteConfig(t, 1)
	cfg.ConnectionTimeout = 2 * time.Second
	id, err := reg.Create(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	held, err := reg.Acquire(ctx, id)
	require.NoError(t, err)

	type result struct {
		conn *Conn
		err  error
	}
	got := make(chan result, 1)
	go func() {
		c, err := reg.Acquire(ctx, id)
		got <- result{c, err}
	}()

	assert.Eventually(t, func() bool {
		stats, err := reg.Stats(id)
		return err == nil && stats.Waiting == 1
	}, time.Second, 10*time.Millisecond)

	held.Release()

	select {
	case r := <-got:
		require.NoError(t, r.err)
		var one int
		require.NoError(t, r.conn.Session(ctx).Raw("SELECT 1").Scan(&one).Error)
		assert.Equal(t, 1, one)
		r.conn.Release()
	case <-time.After(cfg.ConnectionTimeout):
		t.Fatal("waiter was not handed the released connection")
	}

	stats, err := reg.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 0, stats.Waiting)
}

func TestCreateDoesNotBlockOtherPools(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.CloseAll()

	ready, err := reg.Create(sqliteConfig(t, 1))
	require.NoError(t, err)

	slow := sqliteConfig(t, 1)
	slow.Dialector = slowDialector{Dialector: slow.Dialector, delay: time.Second}

	created := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := reg.Create(slow)
			created <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	conn, err := reg.Acquire(context.Background(), ready)
	require.NoError(t, err)
	conn.Release()
	_, err = reg.Stats(ready)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.NoError(t, <-created)
	require.NoError(t, <-created)
	assert.ElementsMatch(t, []string{ready, slow.ID()}, reg.IDs())
}

func TestConnSessionRunsOnPinnedConnection(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.CloseAll()

	id, err := reg.Create(sqliteConfig(t, 1))
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := reg.Acquire(ctx, id)
	require.NoError(t, err)
	defer conn.Release()

	db := conn.Session(ctx)
	require.NoError(t, db.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO items (name) VALUES (?)", "widget").Error)

	var count int64
	require.NoError(t, conn.Session(ctx).Raw("SELECT COUNT(*) FROM items").Scan(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, id, conn.PoolID())
}

func TestCloseForgetsPool(t *testing.T) {
	reg := NewRegistry(nil)
	id, err := reg.Create(sqliteConfig(t, 1))
	require.NoError(t, err)

	require.NoError(t, reg.Close(id))
	require.NoError(t, reg.Close(id))

	_, err = reg.Acquire(context.Background(), id)
	assert.ErrorIs(t, err, ErrPoolNotFound)
	assert.Empty(t, reg.AllStats())
}

func TestMonitorConnectionsStopsWithContext(t *testing.T) {
	reg := NewRegistry(nil)
	defer reg.CloseAll()
	_, err := reg.Create(sqliteConfig(t, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.MonitorConnections(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
