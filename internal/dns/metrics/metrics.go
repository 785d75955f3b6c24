package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the DNS refresh outbox and its relay.
type Metrics struct {
	Enqueued       prometheus.Counter
	Published      prometheus.Counter
	PublishErrors  prometheus.Counter
	Backlog        prometheus.Gauge
	PublishLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Enqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainreg_dns_refresh_enqueued_total",
			Help: "DNS refresh signals written to the outbox",
		}),
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainreg_dns_refresh_published_total",
			Help: "DNS refresh signals delivered to the publisher",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "domainreg_dns_refresh_publish_errors_total",
			Help: "Failed relay batches after retries",
		}),
		Backlog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "domainreg_dns_refresh_backlog",
			Help: "Size of the last batch read from the outbox",
		}),
		PublishLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "domainreg_dns_refresh_publish_seconds",
			Help:    "Time to publish one relay batch",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncEnqueued() {
	if m == nil {
		return
	}
	m.Enqueued.Inc()
}

func (m *Metrics) ObserveBatch(size int, seconds float64, err error) {
	if m == nil {
		return
	}
	m.Backlog.Set(float64(size))
	if err != nil {
		m.PublishErrors.Inc()
		return
	}
	m.Published.Add(float64(size))
	m.PublishLatency.Observe(seconds)
}
