package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/Aleph-Alpha/dbkit/v1/relational"
	"github.com/mattn/go-sqlite3"
	gormsqlite "gorm.io/driver/sqlite"
)

const dirPermissions = 0o750

// Dialect is the relational.Dialect for SQLite files.
type Dialect struct {
	cfg Config
}

var _ relational.Dialect = (*Dialect)(nil)

// NewDialect resolves the file path and applies defaults.
func NewDialect(cfg Config) *Dialect {
	cfg = cfg.withDefaults()
	if abs, err := filepath.Abs(cfg.Path); err == nil {
		cfg.Path = abs
	}
	return &Dialect{cfg: cfg}
}

// NewDriver returns an unconnected SQLite driver.
func NewDriver(name string, cfg Config, pools *pool.Registry, log relational.Logger) *relational.Driver {
	return relational.NewDriver(name, NewDialect(cfg), pools, log)
}

// Path is the absolute path of the database file.
func (d *Dialect) Path() string { return d.cfg.Path }

func (d *Dialect) Kind() database.Kind { return database.KindSQLite }

func (d *Dialect) dsn() string {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", d.cfg.Path, d.cfg.BusyTimeout.Milliseconds())
	if !d.cfg.DisableWAL {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	return dsn
}

// PoolConfig caps the pool at a single connection.
func (d *Dialect) PoolConfig() pool.Config {
	return pool.Config{
		Kind:              string(database.KindSQLite),
		File:              d.cfg.Path,
		Dialector:         gormsqlite.Open(d.dsn()),
		MaxOpen:           1,
		MinIdle:           1,
		ConnectionTimeout: d.cfg.ConnectionTimeout,
	}
}

// Prepare creates the directory holding the database file.
func (d *Dialect) Prepare(context.Context) error {
	if err := os.MkdirAll(filepath.Dir(d.cfg.Path), dirPermissions); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}

func (d *Dialect) Quote(identifier string) string {
	return relational.QuoteWith(`"`, identifier)
}

// ColumnSQL renders a column. Auto-increment keys must be INTEGER PRIMARY KEY
// in SQLite, so the type is forced for them.
func (d *Dialect) ColumnSQL(c database.ColumnDef, inlinePrimaryKey bool) string {
	typ := c.Type
	if typ == "" {
		typ = "TEXT"
	}
	if c.AutoIncrement && c.PrimaryKey && inlinePrimaryKey {
		typ = "INTEGER"
	}

	s := d.Quote(c.Name) + " " + typ
	if c.PrimaryKey && inlinePrimaryKey {
		s += " PRIMARY KEY"
		if c.AutoIncrement {
			s += " AUTOINCREMENT"
		}
	}
	return s + relational.ColumnConstraints(c)
}

func (d *Dialect) CreateTableOptions() string { return "" }

func (d *Dialect) DropIndexSQL(_, index string) string {
	return "DROP INDEX IF EXISTS " + d.Quote(index)
}

func (d *Dialect) DatabaseSizeSQL() string {
	return "SELECT page_count * page_size AS size FROM pragma_page_count(), pragma_page_size()"
}

// TableSizeSQL needs the dbstat virtual table, which is only present when
// go-sqlite3 is built with the sqlite_dbstat tag.
func (d *Dialect) TableSizeSQL() string {
	return "SELECT COALESCE(SUM(pgsize), 0) AS size FROM dbstat WHERE name = ?"
}

// OptimizeSQL rebuilds the whole file; SQLite cannot vacuum a single table.
func (d *Dialect) OptimizeSQL(string) string {
	return "VACUUM"
}

// TranslateError classifies go-sqlite3 errors.
func (d *Dialect) TranslateError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return database.ErrDuplicateKey
	case sqlite3.ErrConstraintForeignKey:
		return database.ErrForeignKey
	}

	switch sqliteErr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return database.ErrRetryable
	}
	return nil
}
