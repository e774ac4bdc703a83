package metrics

import "github.com/prometheus/client_golang/prometheus"

// CreateCounter creates a new CounterVec metric and registers it.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
// Nil buckets select prometheus.DefBuckets.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := createGaugeVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

func createGaugeVec(namespace, name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}
