// Package kafka publishes order status events for downstream consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
)

type Publisher struct {
	client *kgo.Client
	logger *zap.Logger
}

func NewPublisher(brokers []string, topic string, logger *zap.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &Publisher{client: client, logger: logger}, nil
}

// PublishStatusChange writes change keyed by order id so every event for an
// order lands on the same partition.
func (p *Publisher) PublishStatusChange(ctx context.Context, change domain.StatusChange) error {
	record, err := statusRecord(change)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing status change: %w", err)
	}

	p.logger.Debug("status change published", zap.String("orderId", change.OrderID), zap.String("status", string(change.Status)))
	return nil
}

func statusRecord(change domain.StatusChange) (*kgo.Record, error) {
	value, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("encoding status change: %w", err)
	}
	return &kgo.Record{
		Key:   []byte(change.OrderID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte("order.status_changed")},
			{Key: "kind", Value: []byte(change.Kind)},
		},
	}, nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
