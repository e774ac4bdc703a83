// Package pool keeps one bounded connection pool per database endpoint.
//
// A Registry creates pools on demand, keyed by an id derived from the endpoint
// ({kind}-{host}-{port}-{database} for servers, {kind}-{file} for embedded
// files), so two drivers pointing at the same database share one pool. Pools are
// backed by database/sql through a gorm dialector; checkout is bounded by a
// weighted semaphore so that callers wait at most ConnectionTimeout:
//
//	id, err := registry.Create(pool.Config{Kind: "sqlite", File: "app.db", Dialector: sqlite.Open(dsn), MaxOpen: 1})
//	conn, err := registry.Acquire(ctx, id)
//	if err != nil {
//	    // errors.Is(err, pool.ErrConnectionTimeout)
//	}
//	defer conn.Release()
//	rows, err := conn.Session(ctx).Raw("SELECT 1").Rows()
//
// A Conn pins one physical connection until Release, which makes it suitable
// for transactions. Registry.MonitorConnections pings every pool periodically
// and logs endpoints that stopped answering.
package pool
