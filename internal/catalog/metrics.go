package catalog

import "github.com/prometheus/client_golang/prometheus"

const labelOp = "op"

// Metrics are optional; a nil *Metrics records nothing.
type Metrics struct {
	Products        prometheus.Gauge
	PersistFailures prometheus.Counter
	Operations      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently held in the catalog",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_persist_failures_total",
			Help: "Catalog state writes that failed",
		}),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_operations_total",
				Help: "Catalog mutations by operation",
			},
			[]string{labelOp},
		),
	}

	reg.MustRegister(m.Products, m.PersistFailures, m.Operations)
	return m
}

func (m *Metrics) setProducts(n int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(n))
}

func (m *Metrics) persistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) op(name string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(name).Inc()
}
