package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing application metrics.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each service maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	// registerer adds the service label to everything registered through it
	registerer prometheus.Registerer
	namespace  string
}

var _ MetricsCollector = (*Metrics)(nil)

// NewMetrics sets up a dedicated registry whose metrics all carry a constant
// service label, optionally registers the Go, process and build info
// collectors, and prepares an HTTP server serving /metrics.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{Address: ":9090", ServiceName: "billing", Namespace: "dbkit"})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}

	registry := prometheus.NewRegistry()

	// every metric emitted by this service carries service="<cfg.ServiceName>"
	wrappedRegistry := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Metrics{
		Server: &http.Server{
			Addr:    cfg.Address,
			Handler: mux,
		},
		Registry:   registry,
		registerer: wrappedRegistry,
		namespace:  cfg.Namespace,
	}
}
