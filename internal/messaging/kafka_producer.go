package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// KafkaProducer publishes computed stake batches to Kafka
type KafkaProducer struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// KafkaProducerConfig holds Kafka producer configuration
type KafkaProducerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "stake_results"
}

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(config KafkaProducerConfig, logger zerolog.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // same batch ID, same partition
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaProducer{
		writer: writer,
		logger: logger.With().Str("component", "kafka_producer").Logger(),
	}
}

// Publish writes a result batch keyed by its batch ID
func (p *KafkaProducer) Publish(ctx context.Context, msg *models.KafkaStakeResultMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal result batch: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.BatchID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to write to Kafka: %w", err)
	}

	p.logger.Debug().
		Str("topic", p.writer.Topic).
		Str("batch_id", msg.BatchID).
		Int("count", len(msg.Results)).
		Msg("published stake results")

	return nil
}

// Close flushes pending writes and closes the writer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
