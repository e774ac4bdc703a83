// Package manager is the entry point of dbkit. A Manager owns the connection
// pool registry, the named drivers, the query and count caches and the
// monitor, and ties their lifecycle together.
//
// Init connects the default backend selected by Config.Type. If a
// client/server backend (mariadb, postgres, redis, mongodb) cannot be
// initialised, the manager logs a warning and connects the embedded SQLite
// backend under the same name instead. Only a SQLite failure is returned.
//
// Backups are written to {Backup.Dir}/{driver}_{20060102_150405}.backup for
// every registered driver, by hand through Backup and by a background task
// that first runs after Backup.InitialDelay (1h) and then every
// Backup.Interval (24h). One driver failing does not stop the others. When
// Config.Minio names an endpoint each local backup is also uploaded.
//
//	cfg, err := manager.LoadConfig("config/database.yml")
//	if err != nil {
//	    return err
//	}
//	m := manager.New(cfg, log)
//	if err := m.Init(ctx); err != nil {
//	    return err
//	}
//	defer m.Shutdown(context.Background())
//
//	drv, _ := m.DefaultDriver()
//	db, err := database.AsRelational(drv)
//
// Configuration is read from YAML and can be overridden from the environment
// with the DBKIT prefix, e.g. DBKIT_TYPE=postgres or
// DBKIT_POSTGRES_CONNECTION_HOST=db.internal.
package manager
