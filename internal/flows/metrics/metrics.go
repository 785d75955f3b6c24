package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks domain commands.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Transfers       *prometheus.CounterVec
}

// New creates a new Metrics instance with all flow metrics registered.
func New() *Metrics {
	return &Metrics{
		Commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domainreg_flow_commands_total",
			Help: "Domain commands by flow and outcome",
		}, []string{"flow", "outcome"}),
		CommandDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainreg_flow_command_duration_seconds",
			Help:    "Time to validate and commit a domain command",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"flow"}),
		Transfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "domainreg_transfers_total",
			Help: "Transfer resolutions by status",
		}, []string{"status"}),
	}
}

// ObserveCommand records one command. outcome is "ok" or an error code.
func (m *Metrics) ObserveCommand(flow, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(flow, outcome).Inc()
	m.CommandDuration.WithLabelValues(flow).Observe(seconds)
}

// IncTransfer counts a transfer reaching status.
func (m *Metrics) IncTransfer(status string) {
	if m == nil {
		return
	}
	m.Transfers.WithLabelValues(status).Inc()
}
