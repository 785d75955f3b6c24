package publisher

import (
	"context"
	"log/slog"

	dns "domainreg/internal/dns/models"
)

// LogPublisher only logs. It stands in when no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, batch []dns.Refresh) error {
	for _, r := range batch {
		p.logger.InfoContext(ctx, "dns refresh",
			"domain", r.Domain,
			"reason", r.Reason,
			"requested_at", r.RequestedAt,
		)
	}
	return nil
}
