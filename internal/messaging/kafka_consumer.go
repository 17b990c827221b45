package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cypherlabdev/stake-calculator-service/internal/metrics"
	"github.com/cypherlabdev/stake-calculator-service/internal/models"
	"github.com/cypherlabdev/stake-calculator-service/internal/service"
)

// ErrUnprocessableMessage marks a message that fails the same way however often it is retried
var ErrUnprocessableMessage = errors.New("unprocessable stake request message")

const (
	initialRetryBackoff = 200 * time.Millisecond
	maxRetryBackoff     = 10 * time.Second
)

// KafkaConsumer consumes stake request batches from Kafka, computes and caches them,
// and publishes the results
type KafkaConsumer struct {
	reader     *kafka.Reader
	calculator service.Calculator
	cache      service.Cache
	publisher  service.ResultPublisher
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	// retryBackoff is the first wait before retrying a failed message; it doubles up to maxRetryBackoff
	retryBackoff time.Duration
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers []string // e.g., ["localhost:9092"]
	Topic   string   // e.g., "stake_requests"
	GroupID string   // e.g., "stake-calculator"
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	calc service.Calculator,
	cache service.Cache,
	publisher service.ResultPublisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{
		reader:       reader,
		calculator:   calc,
		cache:        cache,
		publisher:    publisher,
		metrics:      m,
		logger:       logger.With().Str("component", "kafka_consumer").Logger(),
		retryBackoff: initialRetryBackoff,
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			// Commits are cumulative per partition, so a message is only
			// committed once it is processed or known to be unprocessable
			if !c.handleMessage(ctx, msg) {
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// handleMessage processes msg, retrying transient failures with exponential backoff.
// It returns true when msg may be committed, and false only when ctx is done first.
func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) bool {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := c.processMessage(ctx, msg)
		if err == nil {
			c.metrics.KafkaMessages.WithLabelValues("processed").Inc()
			return true
		}

		if errors.Is(err, ErrUnprocessableMessage) {
			c.metrics.KafkaMessages.WithLabelValues("rejected").Inc()
			c.logger.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Str("key", string(msg.Key)).
				Msg("skipping unprocessable message")
			return true
		}

		c.metrics.KafkaMessages.WithLabelValues("failed").Inc()
		c.logger.Warn().
			Err(err).
			Int64("offset", msg.Offset).
			Str("key", string(msg.Key)).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("failed to process message, retrying")

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

// processMessage processes a single Kafka message
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var request models.KafkaStakeRequestMessage
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		return fmt.Errorf("%w: failed to unmarshal message: %v", ErrUnprocessableMessage, err)
	}

	c.logger.Debug().
		Int("request_count", len(request.Requests)).
		Str("batch_id", request.BatchID).
		Msg("processing stake request batch")

	results, err := c.calculator.BatchCompute(request.Requests)
	if err != nil {
		return fmt.Errorf("%w: failed to compute stakes: %v", ErrUnprocessableMessage, err)
	}

	if err := c.cache.SetBatch(ctx, results); err != nil {
		return fmt.Errorf("failed to cache stakes: %w", err)
	}

	for _, res := range results {
		c.metrics.ObserveResult(res)
	}

	out := &models.KafkaStakeResultMessage{
		Results:   results,
		Timestamp: time.Now().UTC(),
		BatchID:   request.BatchID,
	}
	if err := c.publisher.Publish(ctx, out); err != nil {
		return fmt.Errorf("failed to publish stakes: %w", err)
	}

	c.logger.Info().
		Int("input_count", len(request.Requests)).
		Int("output_count", len(results)).
		Str("batch_id", request.BatchID).
		Msg("processed, cached and published stake batch")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
