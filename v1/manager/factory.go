package manager

import (
	"github.com/Aleph-Alpha/dbkit/v1/database"
	"github.com/Aleph-Alpha/dbkit/v1/mariadb"
	"github.com/Aleph-Alpha/dbkit/v1/mongodb"
	"github.com/Aleph-Alpha/dbkit/v1/pool"
	"github.com/Aleph-Alpha/dbkit/v1/postgres"
	"github.com/Aleph-Alpha/dbkit/v1/redis"
	"github.com/Aleph-Alpha/dbkit/v1/sqlite"
)

// Deps are the shared services handed to a Factory.
type Deps struct {
	Pools    *pool.Registry
	Logger   Logger
	Observer database.Observer
}

// Factory builds an unconnected driver of one kind from the manager config.
type Factory func(name string, cfg Config, deps Deps) (database.Driver, error)

func defaultFactories() map[database.Kind]Factory {
	return map[database.Kind]Factory{
		database.KindSQLite: func(name string, cfg Config, deps Deps) (database.Driver, error) {
			return sqlite.NewDriver(name, cfg.SQLite, deps.Pools, deps.Logger).WithObserver(deps.Observer), nil
		},
		database.KindMariaDB: func(name string, cfg Config, deps Deps) (database.Driver, error) {
			return mariadb.NewDriver(name, cfg.MariaDB, deps.Pools, deps.Logger).WithObserver(deps.Observer), nil
		},
		database.KindPostgres: func(name string, cfg Config, deps Deps) (database.Driver, error) {
			return postgres.NewDriver(name, cfg.Postgres, deps.Pools, deps.Logger).WithObserver(deps.Observer), nil
		},
		database.KindRedis: func(name string, cfg Config, deps Deps) (database.Driver, error) {
			return redis.NewDriver(name, cfg.Redis, deps.Logger).WithObserver(deps.Observer), nil
		},
		database.KindMongoDB: func(name string, cfg Config, deps Deps) (database.Driver, error) {
			return mongodb.NewDriver(name, cfg.MongoDB, deps.Logger).WithObserver(deps.Observer), nil
		},
	}
}
