package postgres

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer is a disposable PostgreSQL server for integration tests.
type PostgresContainer struct {
	testcontainers.Container
	Config Config
}

func setupPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portBindings := nat.PortMap{
		"5432/tcp": []nat.PortBinding{{HostPort: fmt.Sprintf("%d", port)}},
	}

	req := testcontainers.ContainerRequest{
		Image: "postgres:15-alpine",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, "5432")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &PostgresContainer{
		Container: c,
		Config: Config{
			Connection: Connection{
				Host:     host,
				Port:     mapped.Port(),
				User:     "testuser",
				Password: "testpass",
				DbName:   "testdb",
			},
			ConnectionDetails: ConnectionDetails{MaxOpenConns: 4},
		},
	}, nil
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func TestPostgresDriver(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	c, err := setupPostgresContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := c.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	registry := pool.NewRegistry(nil)
	defer registry.CloseAll()

	drv := NewDriver("accounts", c.Config, registry, nil)
	require.NoError(t, drv.Connect(ctx))
	assert.True(t, drv.IsConnected(ctx))

	t.Run("schema", func(t *testing.T) {
		require.NoError(t, drv.CreateTable(ctx, "accounts", []database.ColumnDef{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "email", Type: "TEXT", NotNull: true, Unique: true},
			{Name: "balance", Type: "NUMERIC(12,2)", Default: "0"},
		}))
		require.NoError(t, drv.CreateTable(ctx, "ledger", []database.ColumnDef{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "account_id", Type: "BIGINT REFERENCES accounts(id)", NotNull: true},
		}))

		exists, err := drv.TableExists(ctx, "accounts")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, drv.AddColumn(ctx, "accounts", database.ColumnDef{Name: "note", Type: "TEXT"}))
		columns, err := drv.TableSchema(ctx, "accounts")
		require.NoError(t, err)
		assert.Len(t, columns, 4)

		require.NoError(t, drv.CreateIndex(ctx, "accounts", "idx_accounts_balance", []string{"balance"}, false))
		require.NoError(t, drv.DropIndex(ctx, "accounts", "idx_accounts_balance"))
		require.NoError(t, drv.DropColumn(ctx, "accounts", "note"))

		tables, err := drv.Tables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"accounts", "ledger"}, tables)
	})

	t.Run("statements", func(t *testing.T) {
		counts, err := drv.BatchUpdate(ctx, "INSERT INTO accounts (email) VALUES (?)", [][]any{
			{"a@example.com"},
			{"b@example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 1}, counts)

		_, err = drv.Update(ctx, "INSERT INTO accounts (email) VALUES (?)", "a@example.com")
		assert.ErrorIs(t, err, database.ErrDuplicateKey)

		_, err = drv.Update(ctx, "INSERT INTO ledger (account_id) VALUES (?)", 999)
		assert.ErrorIs(t, err, database.ErrForeignKey)

		res, err := drv.Query(ctx, "SELECT email FROM accounts ORDER BY email")
		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, database.Column[string](res, "email"))

		size, err := drv.DatabaseSize(ctx)
		require.NoError(t, err)
		assert.Positive(t, size)
		_, err = drv.TableSize(ctx, "accounts")
		require.NoError(t, err)
		require.NoError(t, drv.OptimizeTable(ctx, "accounts"))
	})

	t.Run("transactions", func(t *testing.T) {
		require.NoError(t, drv.BeginTransaction(ctx))
		assert.True(t, drv.InTransaction())
		_, err := drv.Update(ctx, "DELETE FROM accounts")
		require.NoError(t, err)
		require.NoError(t, drv.Rollback(ctx))

		rows, err := drv.RowCount(ctx, "accounts")
		require.NoError(t, err)
		assert.Equal(t, int64(2), rows)
	})

	require.NoError(t, drv.Disconnect(ctx))
	assert.False(t, drv.IsConnected(ctx))
}
