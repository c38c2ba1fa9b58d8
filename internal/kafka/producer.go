// Package kafka wraps franz-go for event publishing
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/config"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
)

// Producer publishes records to a single topic
type Producer struct {
	client *kgo.Client
	topic  string
	log    *logger.Logger
}

func NewProducer(cfg *config.KafkaConfig) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}

	return &Producer{
		client: client,
		topic:  cfg.Topic,
		log:    logger.Get().With(zap.String("component", "kafka_producer")),
	}, nil
}

// PublishAsync hands the record to the client and returns immediately.
// Delivery failures are logged, not surfaced; event publishing must
// never block or fail a reservation operation.
func (p *Producer) PublishAsync(ctx context.Context, key string, value []byte) {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error("kafka publish failed",
				zap.String("topic", r.Topic),
				zap.String("key", string(r.Key)),
				zap.Error(err))
		}
	})
}

// Close flushes outstanding records and releases the client
func (p *Producer) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil {
		p.log.Warn("kafka flush on close failed", zap.Error(err))
	}
	p.client.Close()
}
