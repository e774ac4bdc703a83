package mariadb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/Aleph-Alpha/dbkit/v1/relational"
	"gorm.io/driver/mysql"
)

// Dialect is the relational.Dialect for MariaDB and MySQL.
type Dialect struct {
	cfg Config
}

var _ relational.Dialect = (*Dialect)(nil)

func NewDialect(cfg Config) *Dialect {
	return &Dialect{cfg: cfg.withDefaults()}
}

// NewDriver returns an unconnected MariaDB driver.
func NewDriver(name string, cfg Config, pools *pool.Registry, log relational.Logger) *relational.Driver {
	return relational.NewDriver(name, NewDialect(cfg), pools, log)
}

func (d *Dialect) Kind() database.Kind { return database.KindMariaDB }

// DSN builds user:password@tcp(host:port)/db?params. parseTime is always on
// so DATETIME columns scan into time.Time.
func (d *Dialect) DSN() string {
	c := d.cfg.Connection

	params := url.Values{}
	params.Set("charset", c.Charset)
	params.Set("parseTime", "True")
	params.Set("loc", c.Loc)
	if c.TLS != "" {
		params.Set("tls", c.TLS)
	}
	if c.Timeout != "" {
		params.Set("timeout", c.Timeout)
	}
	if c.ReadTimeout != "" {
		params.Set("readTimeout", c.ReadTimeout)
	}
	if c.WriteTimeout != "" {
		params.Set("writeTimeout", c.WriteTimeout)
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", c.User, c.Password, c.Host, c.Port, c.DbName, params.Encode())
}

func (d *Dialect) PoolConfig() pool.Config {
	details := d.cfg.ConnectionDetails
	return pool.Config{
		Kind:              string(database.KindMariaDB),
		Host:              d.cfg.Connection.Host,
		Port:              d.cfg.Connection.Port,
		Database:          d.cfg.Connection.DbName,
		Dialector:         mysql.Open(d.DSN()),
		MaxOpen:           details.MaxOpenConns,
		MinIdle:           details.MinIdleConns,
		ConnectionTimeout: details.ConnectionTimeout,
		IdleTimeout:       details.ConnMaxIdleTime,
		MaxLifetime:       details.ConnMaxLifetime,
	}
}

func (d *Dialect) Prepare(context.Context) error { return nil }

func (d *Dialect) Quote(identifier string) string {
	return relational.QuoteWith("`", identifier)
}

func (d *Dialect) ColumnSQL(c database.ColumnDef, inlinePrimaryKey bool) string {
	typ := c.Type
	if typ == "" {
		typ = "VARCHAR(255)"
	}
	if c.AutoIncrement && strings.EqualFold(typ, "INTEGER") {
		typ = "BIGINT"
	}

	s := d.Quote(c.Name) + " " + typ
	if c.PrimaryKey {
		s += " NOT NULL"
	}
	if c.AutoIncrement {
		s += " AUTO_INCREMENT"
	}
	if c.PrimaryKey && inlinePrimaryKey {
		s += " PRIMARY KEY"
	}
	return s + relational.ColumnConstraints(c)
}

func (d *Dialect) CreateTableOptions() string {
	return " ENGINE=InnoDB DEFAULT CHARSET=" + d.cfg.Connection.Charset
}

func (d *Dialect) DropIndexSQL(table, index string) string {
	return "DROP INDEX " + d.Quote(index) + " ON " + d.Quote(table)
}

func (d *Dialect) DatabaseSizeSQL() string {
	return "SELECT COALESCE(SUM(data_length + index_length), 0) AS size " +
		"FROM information_schema.tables WHERE table_schema = DATABASE()"
}

func (d *Dialect) TableSizeSQL() string {
	return "SELECT COALESCE(SUM(data_length + index_length), 0) AS size " +
		"FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

func (d *Dialect) OptimizeSQL(table string) string {
	return "OPTIMIZE TABLE " + d.Quote(table)
}
