package redis

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisDriver exercises the key-value surface against a real server.
func TestRedisDriver(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	dataDir := t.TempDir()
	// the server runs as its own user and must be able to write the dump here
	require.NoError(t, os.Chmod(dataDir, 0o777))

	host, port, containerInstance := initializeRedis(ctx, t, dataDir)
	defer func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	var observed []database.OperationContext
	drv := NewDriver("cache", Config{Host: host, Port: port}, nil).
		WithObserver(database.ObserverFunc(func(op database.OperationContext) {
			observed = append(observed, op)
		}))

	require.NoError(t, drv.Connect(ctx))
	defer drv.Disconnect(ctx)
	assert.True(t, drv.IsConnected(ctx))

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, drv.Set(ctx, "user:1", "ada", 0))

		value, err := drv.Get(ctx, "user:1")
		require.NoError(t, err)
		assert.Equal(t, "ada", value)

		_, err = drv.Get(ctx, "user:missing")
		assert.ErrorIs(t, err, database.ErrRecordNotFound)
		assert.True(t, IsNilError(err))
	})

	t.Run("Set with TTL", func(t *testing.T) {
		require.NoError(t, drv.Set(ctx, "session:1", "token", 100*time.Millisecond))
		time.Sleep(300 * time.Millisecond)

		_, err := drv.Get(ctx, "session:1")
		assert.ErrorIs(t, err, database.ErrRecordNotFound)
	})

	t.Run("Scan and RowCount", func(t *testing.T) {
		for i := 0; i < 25; i++ {
			require.NoError(t, drv.Set(ctx, "item:"+strconv.Itoa(i), i, 0))
		}

		keys, err := drv.Scan(ctx, "item:*")
		require.NoError(t, err)
		assert.Len(t, keys, 25)

		rows, err := drv.RowCount(ctx, "item")
		require.NoError(t, err)
		assert.Equal(t, int64(25), rows)

		size, err := drv.DatabaseSize(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(26), size)

		keys, err = drv.Scan(ctx, "nothing:*")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Pipeline", func(t *testing.T) {
		results, err := drv.Pipeline(ctx, []database.Command{
			{Name: "SET", Args: []any{"counter", 1}},
			{Name: "INCRBY", Args: []any{"counter", 4}},
			{Name: "GET", Args: []any{"absent"}},
			{Name: "INCR", Args: []any{"user:1"}},
		})
		require.NoError(t, err)
		require.Len(t, results, 4)

		assert.NoError(t, results[0].Err)
		assert.Equal(t, int64(5), results[1].Value)
		assert.ErrorIs(t, results[2].Err, database.ErrRecordNotFound)
		assert.Error(t, results[3].Err)
	})

	t.Run("Delete", func(t *testing.T) {
		deleted, err := drv.Delete(ctx, "user:1", "counter", "absent")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})

	t.Run("Unsupported and no-op maintenance", func(t *testing.T) {
		_, err := drv.TableSize(ctx, "item")
		assert.ErrorIs(t, err, database.ErrUnsupportedOperation)
		assert.NoError(t, drv.OptimizeTable(ctx, "item"))

		_, err = database.AsRelational(drv)
		assert.ErrorIs(t, err, database.ErrUnsupportedOperation)
	})

	t.Run("Backup and Restore", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "backups", "cache.backup")
		require.NoError(t, drv.Backup(ctx, target))

		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Positive(t, info.Size())

		require.NoError(t, drv.Restore(ctx, target))
	})

	assert.NotEmpty(t, observed)
	require.NoError(t, drv.Disconnect(ctx))
	assert.False(t, drv.IsConnected(ctx))
}

func initializeRedis(ctx context.Context, t *testing.T, dataDir string) (string, int, testcontainers.Container) {
	port, err := getFreePort()
	require.NoError(t, err)

	portBindings := nat.PortMap{
		"6379/tcp": []nat.PortBinding{{HostPort: fmt.Sprintf("%d", port)}},
	}

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
			cfg.Binds = []string{dataDir + ":/data"}
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Ready to accept connections"),
			wait.ForListeningPort("6379/tcp"),
		).WithDeadline(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return host, mapped.Int(), c
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
