package database

import (
	"context"
	"time"
)

// Relational is the statement surface of SQL backends. Placeholders are "?"
// regardless of dialect.
type Relational interface {
	Driver

	Query(ctx context.Context, statement string, params ...any) (*Result, error)
	Update(ctx context.Context, statement string, params ...any) (int64, error)
	// BatchUpdate runs the statement once per parameter set inside one
	// transaction and returns the affected rows of each run.
	BatchUpdate(ctx context.Context, statement string, paramSets [][]any) ([]int64, error)

	// BeginTransaction pins a connection to the driver until Commit or Rollback.
	// Beginning while a transaction is open is a no-op.
	BeginTransaction(ctx context.Context) error
	// Commit and Rollback are no-ops without an open transaction.
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	InTransaction() bool
}

// SchemaEditor covers DDL and catalog introspection.
type SchemaEditor interface {
	Driver

	CreateTable(ctx context.Context, table string, columns []ColumnDef) error
	DropTable(ctx context.Context, table string) error
	TableExists(ctx context.Context, table string) (bool, error)
	Tables(ctx context.Context) ([]string, error)
	TableSchema(ctx context.Context, table string) ([]ColumnInfo, error)
	AddColumn(ctx context.Context, table string, column ColumnDef) error
	DropColumn(ctx context.Context, table, column string) error
	CreateIndex(ctx context.Context, table, index string, columns []string, unique bool) error
	DropIndex(ctx context.Context, table, index string) error
}

// Maintainer covers per-table statistics and housekeeping.
type Maintainer interface {
	Driver

	TableSize(ctx context.Context, table string) (int64, error)
	RowCount(ctx context.Context, table string) (int64, error)
	// OptimizeTable is a no-op where the backend has nothing to optimise.
	OptimizeTable(ctx context.Context, table string) error
}

// KeyValue is the surface of key-value backends.
type KeyValue interface {
	Driver

	// Get returns ErrRecordNotFound for a missing key.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value; a zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Scan returns every key matching the glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
	// Pipeline sends all commands in one round trip. Per-command failures are
	// reported in the matching CommandResult.
	Pipeline(ctx context.Context, commands []Command) ([]CommandResult, error)
}

// DocumentStore is the surface of document backends. Collections play the role
// of tables.
type DocumentStore interface {
	Driver

	InsertOne(ctx context.Context, collection string, doc Document) (any, error)
	InsertMany(ctx context.Context, collection string, docs []Document) ([]any, error)
	// Find returns at most limit documents; limit <= 0 means no limit.
	Find(ctx context.Context, collection string, filter Document, limit int64) ([]Document, error)
	UpdateMany(ctx context.Context, collection string, filter, update Document) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter Document) (int64, error)
}

// ColumnDef describes a column for CreateTable and AddColumn. Type is passed
// through to the dialect verbatim.
type ColumnDef struct {
	Name          string
	Type          string
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Unique        bool
	// Default is a SQL literal, e.g. "0" or "'pending'". Empty means none.
	Default string
}

// ColumnInfo is one column as reported by the catalog.
type ColumnInfo struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
}

// Command is one key-value command, e.g. {Name: "HSET", Args: []any{"user:1", "name", "ada"}}.
type Command struct {
	Name string
	Args []any
}

// CommandResult is the reply to one pipelined Command.
type CommandResult struct {
	Value any
	Err   error
}

// Document is a schemaless record.
type Document map[string]any

// AsRelational returns d as a Relational or ErrUnsupportedOperation.
func AsRelational(d Driver) (Relational, error) {
	r, ok := d.(Relational)
	if !ok {
		return nil, Unsupported(d, "relational statements")
	}
	return r, nil
}

// AsSchemaEditor returns d as a SchemaEditor or ErrUnsupportedOperation.
func AsSchemaEditor(d Driver) (SchemaEditor, error) {
	s, ok := d.(SchemaEditor)
	if !ok {
		return nil, Unsupported(d, "schema editing")
	}
	return s, nil
}

// AsMaintainer returns d as a Maintainer or ErrUnsupportedOperation.
func AsMaintainer(d Driver) (Maintainer, error) {
	m, ok := d.(Maintainer)
	if !ok {
		return nil, Unsupported(d, "table maintenance")
	}
	return m, nil
}

// AsKeyValue returns d as a KeyValue or ErrUnsupportedOperation.
func AsKeyValue(d Driver) (KeyValue, error) {
	kv, ok := d.(KeyValue)
	if !ok {
		return nil, Unsupported(d, "key-value access")
	}
	return kv, nil
}

// AsDocumentStore returns d as a DocumentStore or ErrUnsupportedOperation.
func AsDocumentStore(d Driver) (DocumentStore, error) {
	ds, ok := d.(DocumentStore)
	if !ok {
		return nil, Unsupported(d, "document access")
	}
	return ds, nil
}
