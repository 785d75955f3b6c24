// Package publisher delivers DNS refresh signals to the zone publication
// pipeline over Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	dns "domainreg/internal/dns/models"
)

// KafkaPublisher produces one record per refresh, keyed by domain name so
// every refresh of a domain lands on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafka(client *kgo.Client, topic string) (*KafkaPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("kafka client is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, batch []dns.Refresh) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, r := range batch {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal dns refresh: %w", err)
		}
		records = append(records, &kgo.Record{
			Topic:     p.topic,
			Key:       []byte(r.Domain),
			Value:     payload,
			Timestamp: r.RequestedAt,
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce dns refresh: %w", err)
	}
	return nil
}
