package events

import (
	"context"

	"profitscout/internal/adapters/kafka"
	"profitscout/pkg/logger"
)

// Publisher emits analytics run lifecycle events for downstream consumers
type Publisher interface {
	PublishSelectionCompleted(ctx context.Context, event *SelectionCompletedEvent) error
	PublishEnrichmentCompleted(ctx context.Context, event *EnrichmentCompletedEvent) error
}

// KafkaPublisher publishes run events to Kafka
type KafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewKafkaPublisher creates a new Kafka-backed event publisher
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishSelectionCompleted announces a committed selection run
func (p *KafkaPublisher) PublishSelectionCompleted(ctx context.Context, event *SelectionCompletedEvent) error {
	return p.producer.Publish(ctx, TopicSelectionCompleted, event.RunID.String(), event)
}

// PublishEnrichmentCompleted announces a completed enrichment run
func (p *KafkaPublisher) PublishEnrichmentCompleted(ctx context.Context, event *EnrichmentCompletedEvent) error {
	return p.producer.Publish(ctx, TopicEnrichmentCompleted, event.RunAt.Format("2006-01-02"), event)
}

// NopPublisher discards events; used when Kafka is not configured
type NopPublisher struct{}

// PublishSelectionCompleted implements Publisher
func (NopPublisher) PublishSelectionCompleted(context.Context, *SelectionCompletedEvent) error {
	return nil
}

// PublishEnrichmentCompleted implements Publisher
func (NopPublisher) PublishEnrichmentCompleted(context.Context, *EnrichmentCompletedEvent) error {
	return nil
}
