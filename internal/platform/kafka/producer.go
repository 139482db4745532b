// Package kafka wraps franz-go for the audit pipeline: a synchronous
// producer for the outbox relay, a group consumer for materialization, and
// topic provisioning.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"treasury/pkg/platform/audit/outbox"
)

// Producer publishes records and waits for broker acknowledgement.
type Producer struct {
	client *kgo.Client
}

func NewProducer(brokers []string, clientID string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client}, nil
}

// Publish sends msgs to topic and returns the first delivery error.
func (p *Producer) Publish(ctx context.Context, topic string, msgs ...outbox.Message) error {
	records := make([]*kgo.Record, len(msgs))
	for i, m := range msgs {
		records[i] = &kgo.Record{Topic: topic, Key: m.Key, Value: m.Value}
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Health pings the cluster.
func (p *Producer) Health(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}
