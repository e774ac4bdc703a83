package relational

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"gorm.io/gorm"
)

// CreateTable creates table unless it exists.
func (d *Driver) CreateTable(ctx context.Context, table string, columns []database.ColumnDef) error {
	if len(columns) == 0 {
		return fmt.Errorf("create table %q: no columns", table)
	}
	_, err := d.exec(ctx, database.OpDDL, CreateTableSQL(d.dialect, table, columns))
	return err
}

// DropTable drops table if it exists.
func (d *Driver) DropTable(ctx context.Context, table string) error {
	_, err := d.exec(ctx, database.OpDDL, "DROP TABLE IF EXISTS "+d.dialect.Quote(table))
	return err
}

// AddColumn appends a column to table.
func (d *Driver) AddColumn(ctx context.Context, table string, column database.ColumnDef) error {
	statement := "ALTER TABLE " + d.dialect.Quote(table) + " ADD COLUMN " + d.dialect.ColumnSQL(column, true)
	_, err := d.exec(ctx, database.OpDDL, statement)
	return err
}

// DropColumn removes a column from table.
func (d *Driver) DropColumn(ctx context.Context, table, column string) error {
	statement := "ALTER TABLE " + d.dialect.Quote(table) + " DROP COLUMN " + d.dialect.Quote(column)
	_, err := d.exec(ctx, database.OpDDL, statement)
	return err
}

// CreateIndex creates an index over columns of table.
func (d *Driver) CreateIndex(ctx context.Context, table, index string, columns []string, unique bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("create index %q: no columns", index)
	}
	_, err := d.exec(ctx, database.OpDDL, CreateIndexSQL(d.dialect, table, index, columns, unique))
	return err
}

// DropIndex removes an index.
func (d *Driver) DropIndex(ctx context.Context, table, index string) error {
	_, err := d.exec(ctx, database.OpDDL, d.dialect.DropIndexSQL(table, index))
	return err
}

// TableExists looks the table up in the engine's catalog.
func (d *Driver) TableExists(ctx context.Context, table string) (exists bool, err error) {
	err = d.withMigrator(ctx, "table_exists", table, func(m gorm.Migrator) error {
		exists = m.HasTable(table)
		return nil
	})
	return exists, err
}

// Tables lists the user tables in lexical order.
func (d *Driver) Tables(ctx context.Context) (tables []string, err error) {
	err = d.withMigrator(ctx, "tables", "", func(m gorm.Migrator) error {
		names, err := m.GetTables()
		if err != nil {
			return err
		}
		for _, n := range names {
			if strings.HasPrefix(n, "sqlite_") {
				continue
			}
			tables = append(tables, n)
		}
		return nil
	})
	sort.Strings(tables)
	return tables, err
}

// TableSchema returns the columns of table as reported by the catalog.
func (d *Driver) TableSchema(ctx context.Context, table string) (columns []database.ColumnInfo, err error) {
	err = d.withMigrator(ctx, "table_schema", table, func(m gorm.Migrator) error {
		if !m.HasTable(table) {
			return fmt.Errorf("%w: table %q", database.ErrRecordNotFound, table)
		}
		types, err := m.ColumnTypes(table)
		if err != nil {
			return err
		}
		for _, ct := range types {
			info := database.ColumnInfo{Name: ct.Name(), Type: ct.DatabaseTypeName()}
			if full, ok := ct.ColumnType(); ok && full != "" {
				info.Type = full
			}
			if nullable, ok := ct.Nullable(); ok {
				info.Nullable = nullable
			}
			if pk, ok := ct.PrimaryKey(); ok {
				info.PrimaryKey = pk
			}
			columns = append(columns, info)
		}
		return nil
	})
	return columns, err
}

func (d *Driver) withMigrator(ctx context.Context, operation, table string, fn func(gorm.Migrator) error) (err error) {
	ctx, done := d.instrument(ctx, database.OpDDL, operation+" "+table)
	defer func() { done(0, err) }()

	db, release, err := d.session(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := fn(db.Migrator()); err != nil {
		return fmt.Errorf("%s %s: %w", operation, table, err)
	}
	return nil
}

// DatabaseSize returns the size of the database in bytes.
func (d *Driver) DatabaseSize(ctx context.Context) (int64, error) {
	return d.scalar(ctx, d.dialect.DatabaseSizeSQL())
}

// TableSize returns the size of table, data and indexes, in bytes.
func (d *Driver) TableSize(ctx context.Context, table string) (int64, error) {
	return d.scalar(ctx, d.dialect.TableSizeSQL(), table)
}

// RowCount counts the rows of table.
func (d *Driver) RowCount(ctx context.Context, table string) (int64, error) {
	return d.scalar(ctx, "SELECT COUNT(*) AS row_count FROM "+d.dialect.Quote(table))
}

// OptimizeTable runs the dialect's optimisation statement, if any.
func (d *Driver) OptimizeTable(ctx context.Context, table string) error {
	statement := d.dialect.OptimizeSQL(table)
	if statement == "" {
		return nil
	}
	if d.InTransaction() {
		return fmt.Errorf("%w: optimizing %q inside a transaction", database.ErrUnsupportedOperation, table)
	}
	_, err := d.exec(ctx, database.OpDDL, statement)
	return err
}

// Backup delegates to the dialect.
func (d *Driver) Backup(ctx context.Context, path string) (err error) {
	ctx, done := d.instrument(ctx, database.OpBackup, path)
	defer func() { done(0, err) }()

	if err := d.dialect.Backup(ctx, d, path); err != nil {
		return fmt.Errorf("%s backup of %q to %s: %w", d.Kind(), d.name, path, err)
	}
	return nil
}

// Restore delegates to the dialect.
func (d *Driver) Restore(ctx context.Context, path string) (err error) {
	ctx, done := d.instrument(ctx, database.OpRestore, path)
	defer func() { done(0, err) }()

	if err := d.dialect.Restore(ctx, d, path); err != nil {
		return fmt.Errorf("%s restore of %q from %s: %w", d.Kind(), d.name, path, err)
	}
	return nil
}
