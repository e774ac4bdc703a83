// Package cache memoizes query results and counts in front of drivers.
//
// Each Cache holds at most MaxEntries values, evicts the least recently used
// one beyond that and forgets every value TTL after it was written. Keys are
// opaque to the cache; callers usually derive them from the statement text and
// its parameters.
//
//	key := stmt + "|" + fmt.Sprint(params...)
//	if res, ok := caches.Queries.Get(key); ok {
//		return res, nil
//	}
//	res, err := drv.Query(ctx, stmt, params...)
//	if err == nil {
//		caches.Queries.Put(key, res)
//	}
//
// There is no get-or-compute. Two goroutines that miss on the same key both run
// the query and both Put; the last write wins. That is fine for idempotent reads
// but means population is not exactly-once.
package cache
