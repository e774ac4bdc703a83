// Package sqlite is the embedded SQL backend.
//
// The database lives in a single file opened through gorm.io/driver/sqlite
// (github.com/mattn/go-sqlite3) with WAL journaling, foreign keys and a busy
// timeout. Its pool is capped at one connection, so every statement of the
// process is serialised on that connection and a transaction holds it until it
// ends.
//
//	drv := sqlite.NewDriver("main", sqlite.Config{Path: "data/app.db"}, registry, log)
//	if err := drv.Connect(ctx); err != nil {
//	    return err
//	}
//
// Backups checkpoint the WAL and copy the database file together with its -wal
// and -shm companions while holding the connection. Restores take the pool
// offline, copy the files back and reconnect.
package sqlite
