package relational

import (
	"context"
	"strings"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
)

// Dialect captures what differs between SQL engines.
type Dialect interface {
	Kind() database.Kind

	// PoolConfig describes the endpoint and the pool limits.
	PoolConfig() pool.Config

	// Prepare runs before the pool is created, e.g. to create directories.
	Prepare(ctx context.Context) error

	Quote(identifier string) string

	// ColumnSQL renders one column definition. inlinePrimaryKey is false when the
	// table has a composite key rendered as a table constraint.
	ColumnSQL(column database.ColumnDef, inlinePrimaryKey bool) string

	// CreateTableOptions is appended after the closing parenthesis of CREATE TABLE.
	CreateTableOptions() string

	DropIndexSQL(table, index string) string

	// DatabaseSizeSQL returns a single int64 with the database size in bytes.
	DatabaseSizeSQL() string

	// TableSizeSQL returns a single int64; its only parameter is the table name.
	TableSizeSQL() string

	// OptimizeSQL returns the statement that optimises table, or "" when the
	// engine has nothing to do.
	OptimizeSQL(table string) string

	// TranslateError classifies a backend error as one of the database sentinels,
	// or returns nil when it is not recognised.
	TranslateError(err error) error

	Backup(ctx context.Context, d *Driver, path string) error
	Restore(ctx context.Context, d *Driver, path string) error
}

// CreateTableSQL renders CREATE TABLE for any dialect. Several primary key
// columns become a table-level constraint.
func CreateTableSQL(dialect Dialect, table string, columns []database.ColumnDef) string {
	var keys []string
	for _, c := range columns {
		if c.PrimaryKey {
			keys = append(keys, dialect.Quote(c.Name))
		}
	}
	inline := len(keys) <= 1

	parts := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		parts = append(parts, dialect.ColumnSQL(c, inline))
	}
	if !inline {
		parts = append(parts, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}

	return "CREATE TABLE IF NOT EXISTS " + dialect.Quote(table) +
		" (" + strings.Join(parts, ", ") + ")" + dialect.CreateTableOptions()
}

// ColumnConstraints renders the NOT NULL, UNIQUE and DEFAULT suffix shared by
// every dialect.
func ColumnConstraints(c database.ColumnDef) string {
	var sb strings.Builder
	if c.NotNull && !c.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if c.Unique && !c.PrimaryKey {
		sb.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	return sb.String()
}

// QuoteWith doubles embedded quote characters and wraps the identifier.
func QuoteWith(quote, identifier string) string {
	return quote + strings.ReplaceAll(identifier, quote, quote+quote) + quote
}

// CreateIndexSQL renders CREATE [UNIQUE] INDEX for any dialect.
func CreateIndexSQL(dialect Dialect, table, index string, columns []string, unique bool) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = dialect.Quote(c)
	}

	prefix := "CREATE INDEX "
	if unique {
		prefix = "CREATE UNIQUE INDEX "
	}
	return prefix + dialect.Quote(index) + " ON " + dialect.Quote(table) + " (" + strings.Join(quoted, ", ") + ")"
}
