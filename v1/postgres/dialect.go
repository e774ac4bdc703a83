package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/Aleph-Alpha/dbkit/v1/relational"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Dialect is the relational.Dialect for PostgreSQL.
type Dialect struct {
	cfg Config
}

var _ relational.Dialect = (*Dialect)(nil)

func NewDialect(cfg Config) *Dialect {
	return &Dialect{cfg: cfg.withDefaults()}
}

// NewDriver returns an unconnected PostgreSQL driver.
func NewDriver(name string, cfg Config, pools *pool.Registry, log relational.Logger) *relational.Driver {
	return relational.NewDriver(name, NewDialect(cfg), pools, log)
}

func (d *Dialect) Kind() database.Kind { return database.KindPostgres }

// DSN builds a keyword/value connection string.
func (d *Dialect) DSN() string {
	c := d.cfg.Connection
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d search_path=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, c.SSLMode, c.ConnectTimeout, c.Schema)
}

func (d *Dialect) PoolConfig() pool.Config {
	details := d.cfg.ConnectionDetails
	return pool.Config{
		Kind:              string(database.KindPostgres),
		Host:              d.cfg.Connection.Host,
		Port:              d.cfg.Connection.Port,
		Database:          d.cfg.Connection.DbName,
		Dialector:         postgres.Open(d.DSN()),
		MaxOpen:           details.MaxOpenConns,
		MinIdle:           details.MinIdleConns,
		ConnectionTimeout: details.ConnectionTimeout,
		IdleTimeout:       details.ConnMaxIdleTime,
		MaxLifetime:       details.ConnMaxLifetime,
	}
}

func (d *Dialect) Prepare(context.Context) error { return nil }

func (d *Dialect) Quote(identifier string) string {
	return relational.QuoteWith(`"`, identifier)
}

// ColumnSQL maps auto-increment keys to identity columns.
func (d *Dialect) ColumnSQL(c database.ColumnDef, inlinePrimaryKey bool) string {
	typ := c.Type
	if typ == "" {
		typ = "TEXT"
	}
	if c.AutoIncrement && strings.EqualFold(typ, "INTEGER") {
		typ = "BIGINT"
	}

	s := d.Quote(c.Name) + " " + typ
	if c.AutoIncrement {
		s += " GENERATED BY DEFAULT AS IDENTITY"
	}
	if c.PrimaryKey && inlinePrimaryKey {
		s += " PRIMARY KEY"
	}
	return s + relational.ColumnConstraints(c)
}

func (d *Dialect) CreateTableOptions() string { return "" }

func (d *Dialect) DropIndexSQL(_, index string) string {
	return "DROP INDEX IF EXISTS " + d.Quote(index)
}

func (d *Dialect) DatabaseSizeSQL() string {
	return "SELECT pg_database_size(current_database()) AS size"
}

func (d *Dialect) TableSizeSQL() string {
	return "SELECT pg_total_relation_size(CAST(? AS regclass)) AS size"
}

func (d *Dialect) OptimizeSQL(table string) string {
	return "VACUUM ANALYZE " + d.Quote(table)
}

// SQLSTATE codes used for classification.
const (
	uniqueViolation      = "23505"
	foreignKeyViolation  = "23503"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
	tooManyConnections   = "53300"
	adminShutdown        = "57P01"
	cannotConnectNow     = "57P03"
)

// TranslateError classifies pgx errors.
func (d *Dialect) TranslateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case uniqueViolation:
		return database.ErrDuplicateKey
	case foreignKeyViolation:
		return database.ErrForeignKey
	case serializationFailure, deadlockDetected, tooManyConnections, adminShutdown, cannotConnectNow:
		return database.ErrRetryable
	}
	return nil
}
