package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/Aleph-Alpha/dbkit/v1/relational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T) (*relational.Driver, *pool.Registry, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "app.db")
	registry := pool.NewRegistry(nil)
	drv := NewDriver("main", Config{Path: path}, registry, nil)

	require.NoError(t, drv.Connect(context.Background()))
	t.Cleanup(func() {
		_ = drv.Disconnect(context.Background())
		_ = registry.CloseAll()
	})
	return drv, registry, path
}

var usersTable = []database.ColumnDef{
	{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
	{Name: "email", Type: "TEXT", NotNull: true, Unique: true},
	{Name: "age", Type: "INTEGER", Default: "0"},
}

func TestColumnSQL(t *testing.T) {
	d := NewDialect(Config{Path: "x.db"})

	assert.Equal(t, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`, d.ColumnSQL(usersTable[0], true))
	assert.Equal(t, `"email" TEXT NOT NULL UNIQUE`, d.ColumnSQL(usersTable[1], true))
	assert.Equal(t, `"age" INTEGER DEFAULT 0`, d.ColumnSQL(usersTable[2], true))
	assert.Equal(t, `"we""ird"`, d.Quote(`we"ird`))

	composite := relational.CreateTableSQL(d, "memberships", []database.ColumnDef{
		{Name: "user_id", Type: "INTEGER", PrimaryKey: true},
		{Name: "group_id", Type: "INTEGER", PrimaryKey: true},
	})
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "memberships" ("user_id" INTEGER, "group_id" INTEGER, PRIMARY KEY ("user_id", "group_id"))`,
		composite)
}

func TestPoolConfigIsSingleConnection(t *testing.T) {
	d := NewDialect(Config{Path: "rel/app.db"})
	cfg := d.PoolConfig()

	assert.Equal(t, 1, cfg.MaxOpen)
	assert.True(t, filepath.IsAbs(cfg.File))
	assert.Equal(t, "sqlite-"+d.Path(), cfg.ID())
	assert.Contains(t, d.dsn(), "_journal_mode=WAL")
	assert.NotContains(t, NewDialect(Config{Path: "x.db", DisableWAL: true}).dsn(), "WAL")
}

func TestNotConnected(t *testing.T) {
	drv := NewDriver("idle", Config{Path: filepath.Join(t.TempDir(), "idle.db")}, pool.NewRegistry(nil), nil)

	_, err := drv.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, database.ErrNotConnected)
	assert.False(t, drv.IsConnected(context.Background()))
}

func TestQueryAndUpdate(t *testing.T) {
	drv, _, path := newTestDriver(t)
	ctx := context.Background()

	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, drv.IsConnected(ctx))

	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))

	n, err := drv.Update(ctx, "INSERT INTO users (email, age) VALUES (?, ?)", "ada@example.com", 36)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err := drv.BatchUpdate(ctx, "INSERT INTO users (email, age) VALUES (?, ?)", [][]any{
		{"grace@example.com", 45},
		{"linus@example.com", 28},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1}, counts)

	res, err := drv.Query(ctx, "SELECT id, email, age FROM users WHERE age > ? ORDER BY age", 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email", "age"}, res.Columns())
	assert.Equal(t, []string{"ada@example.com", "grace@example.com"}, database.Column[string](res, "email"))

	rows, err := drv.RowCount(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)

	empty, err := drv.Query(ctx, "SELECT id FROM users WHERE age > ?", 100)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestStatementErrorsAreClassified(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))

	_, err := drv.Update(ctx, "INSERT INTO users (email) VALUES (?)", "dup@example.com")
	require.NoError(t, err)

	_, err = drv.Update(ctx, "INSERT INTO users (email) VALUES (?)", "dup@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrDuplicateKey)

	var stmtErr *database.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.True(t, strings.HasPrefix(stmtErr.Statement, "INSERT INTO users"))

	_, err = drv.Query(ctx, "SELECT * FROM missing_table")
	require.ErrorAs(t, err, &stmtErr)
	assert.NotErrorIs(t, err, database.ErrDuplicateKey)
}

func TestBatchUpdateRollsBackOnFailure(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))

	_, err := drv.BatchUpdate(ctx, "INSERT INTO users (email) VALUES (?)", [][]any{
		{"a@example.com"},
		{"a@example.com"},
	})
	assert.ErrorIs(t, err, database.ErrDuplicateKey)

	rows, err := drv.RowCount(ctx, "users")
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestTransactions(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))

	require.NoError(t, drv.Commit(ctx))
	require.NoError(t, drv.Rollback(ctx))

	require.NoError(t, drv.BeginTransaction(ctx))
	require.NoError(t, drv.BeginTransaction(ctx))
	assert.True(t, drv.InTransaction())
	assert.True(t, drv.IsConnected(ctx))

	_, err := drv.Update(ctx, "INSERT INTO users (email) VALUES (?)", "rolled@example.com")
	require.NoError(t, err)
	require.NoError(t, drv.Rollback(ctx))
	assert.False(t, drv.InTransaction())

	rows, err := drv.RowCount(ctx, "users")
	require.NoError(t, err)
	assert.Zero(t, rows)

	err = database.RunInTransaction(ctx, drv, func(ctx context.Context, tx database.Relational) error {
		_, err := tx.Update(ctx, "INSERT INTO users (email) VALUES (?)", "kept@example.com")
		return err
	})
	require.NoError(t, err)

	rows, err = drv.RowCount(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestSchemaEditing(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()

	exists, err := drv.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))
	require.NoError(t, drv.CreateTable(ctx, "audit", []database.ColumnDef{{Name: "entry", Type: "TEXT"}}))

	exists, err = drv.TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, exists)

	tables, err := drv.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "users"}, tables)

	require.NoError(t, drv.AddColumn(ctx, "users", database.ColumnDef{Name: "nickname", Type: "TEXT"}))
	columns, err := drv.TableSchema(ctx, "users")
	require.NoError(t, err)

	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
		if c.Name == "id" {
			assert.True(t, c.PrimaryKey)
		}
	}
	assert.Equal(t, []string{"id", "email", "age", "nickname"}, names)

	require.NoError(t, drv.DropColumn(ctx, "users", "nickname"))
	columns, err = drv.TableSchema(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	require.NoError(t, drv.CreateIndex(ctx, "users", "idx_users_age", []string{"age"}, false))
	res, err := drv.Query(ctx, "SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?", "idx_users_age")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	require.NoError(t, drv.DropIndex(ctx, "users", "idx_users_age"))
	res, err = drv.Query(ctx, "SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?", "idx_users_age")
	require.NoError(t, err)
	assert.True(t, res.IsEmpty())

	_, err = drv.TableSchema(ctx, "nope")
	assert.ErrorIs(t, err, database.ErrRecordNotFound)

	require.NoError(t, drv.DropTable(ctx, "audit"))
	require.NoError(t, drv.DropTable(ctx, "audit"))
	tables, err = drv.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, tables)
}

func TestSizeAndOptimize(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))

	size, err := drv.DatabaseSize(ctx)
	require.NoError(t, err)
	assert.Positive(t, size)

	require.NoError(t, drv.OptimizeTable(ctx, "users"))

	require.NoError(t, drv.BeginTransaction(ctx))
	assert.ErrorIs(t, drv.OptimizeTable(ctx, "users"), database.ErrUnsupportedOperation)
	require.NoError(t, drv.Rollback(ctx))
}

func TestBackupAndRestore(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, drv.CreateTable(ctx, "users", usersTable))
	_, err := drv.Update(ctx, "INSERT INTO users (email) VALUES (?)", "before@example.com")
	require.NoError(t, err)

	backup := filepath.Join(t.TempDir(), "backups", "main_20240101_000000.backup")
	require.NoError(t, drv.Backup(ctx, backup))

	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = drv.Update(ctx, "INSERT INTO users (email) VALUES (?)", "after@example.com")
	require.NoError(t, err)

	require.NoError(t, drv.Restore(ctx, backup))
	assert.True(t, drv.IsConnected(ctx))

	res, err := drv.Query(ctx, "SELECT email FROM users")
	require.NoError(t, err)
	assert.Equal(t, []string{"before@example.com"}, database.Column[string](res, "email"))

	assert.Error(t, drv.Restore(ctx, filepath.Join(t.TempDir(), "missing.backup")))
}

func TestDriversShareThePool(t *testing.T) {
	drv, registry, path := newTestDriver(t)
	other := NewDriver("reporting", Config{Path: path}, registry, nil)
	require.NoError(t, other.Connect(context.Background()))

	assert.Equal(t, drv.PoolID(), other.PoolID())
	assert.Len(t, registry.IDs(), 1)
}

func TestObserverReceivesOperations(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()

	var (
		mu  sync.Mutex
		ops []database.OperationContext
	)
	drv.WithObserver(database.ObserverFunc(func(op database.OperationContext) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	}))

	_, err := drv.Query(ctx, "SELECT 1 AS one")
	require.NoError(t, err)
	_, err = drv.Update(ctx, "NOT SQL")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ops, 2)
	assert.Equal(t, database.OpQuery, ops[0].Operation)
	assert.Equal(t, int64(1), ops[0].Rows)
	assert.Equal(t, "main", ops[0].Driver)
	assert.Equal(t, database.OpUpdate, ops[1].Operation)
	assert.Error(t, ops[1].Err)
}

func TestAsyncDispatch(t *testing.T) {
	drv, _, _ := newTestDriver(t)
	ctx := context.Background()

	_, err := drv.Update(ctx, "CREATE TABLE events (n INTEGER)")
	require.NoError(t, err)

	upd := <-database.AsyncUpdate(ctx, drv, "INSERT INTO events (n) VALUES (?), (?)", 1, 2)
	require.NoError(t, upd.Err)
	assert.Equal(t, int64(2), upd.Value)

	err = <-database.AsyncTransaction(ctx, drv, func(ctx context.Context, tx database.Relational) error {
		if _, err := tx.Update(ctx, "INSERT INTO events (n) VALUES (?)", 3); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")

	q := <-database.AsyncQuery(ctx, drv, "SELECT n FROM events ORDER BY n")
	require.NoError(t, q.Err)
	assert.Equal(t, []int{1, 2}, database.Column[int](q.Value, "n"))
}
