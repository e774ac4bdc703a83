// Package metrics provides an isolated Prometheus registry and the HTTP server
// that exposes it.
//
// Every metric created through a *Metrics carries the constant label
// service="<ServiceName>" and, when Namespace is set, the namespace prefix.
// The monitor package uses it to publish driver counters and durations:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "billing"})
//	mon := monitor.New(monitor.Config{}, m, log)
//	go m.Server.ListenAndServe()
//
// Scrape http://localhost:9090/metrics for dbkit_queries_total and friends.
package metrics
