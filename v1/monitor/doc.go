// Package monitor counts driver operations and keeps recent durations per
// statement.
//
// A Monitor is a database.Observer: attach it to every driver and it sees each
// call together with its duration and error. Stats derives the slowest
// statements (by average, among those with at least one sample above
// SlowThreshold) and adds pool and cache statistics when sources are set.
//
//	mon := monitor.New(monitor.Config{SlowThreshold: 500 * time.Millisecond}, promMetrics, log).
//		WithPools(registry).
//		WithCaches(caches)
//	drv.WithObserver(mon)
//	go mon.Report(ctx)
package monitor
