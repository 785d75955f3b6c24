package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registrar lookups by cache layer.
type Metrics struct {
	Lookups *prometheus.CounterVec
}

// New creates a new Metrics instance with all registrar metrics registered.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domainreg_registrar_lookups_total",
			Help: "Registrar lookups by the layer that answered them",
		}, []string{"layer"}),
	}
}

// ObserveLookup records which layer served a lookup: local, redis or store.
func (m *Metrics) ObserveLookup(layer string) {
	m.Lookups.WithLabelValues(layer).Inc()
}
