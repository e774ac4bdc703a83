package metrics

// DefaultMetricsAddress is used when Config.Address is empty.
const DefaultMetricsAddress = ":9090"

// Config defines the configuration structure for the Prometheus metrics server.
type Config struct {
	// Address determines the network address where the Prometheus
	// metrics HTTP server listens.
	//
	// Default: ":9090"
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// EnableDefaultCollectors controls whether the built-in Go runtime
	// and process metrics are automatically registered.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace is prefixed to every metric created through this package.
	// Example: Namespace "dbkit" turns "queries_total" into "dbkit_queries_total".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName is added to every metric as the constant label service.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}
