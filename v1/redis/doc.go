// Package redis is the key-value backend of dbkit.
//
// The driver wraps a go-redis client and implements database.KeyValue and
// database.Maintainer. Relational statements and DDL are not available;
// database.AsRelational reports ErrUnsupportedOperation for it.
//
// Key namespaces stand in for tables: RowCount("user") counts the keys that
// match "user:*" and DatabaseSize reports DBSIZE.
//
// Basic Usage:
//
//	drv := redis.NewDriver("sessions", redis.Config{Host: "localhost", Port: 6379}, log)
//	if err := drv.Connect(ctx); err != nil {
//		return err
//	}
//
//	_ = drv.Set(ctx, "session:42", token, 30*time.Minute)
//	token, err := drv.Get(ctx, "session:42")
//	if errors.Is(err, database.ErrRecordNotFound) {
//		// expired
//	}
//
// Pipelining:
//
//	results, err := drv.Pipeline(ctx, []database.Command{
//		{Name: "INCR", Args: []any{"hits"}},
//		{Name: "EXPIRE", Args: []any{"hits", 60}},
//	})
//
// Backup runs BGSAVE and copies the RDB file, so it only works when the
// server's data directory is reachable from this process. Restore writes the
// file back; the server has to be restarted to load it.
package redis
