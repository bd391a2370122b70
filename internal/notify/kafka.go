package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/research-report-service/internal/config"
	"github.com/helixir/research-report-service/internal/workflow"
)

// KafkaNotifier publishes job events to a Kafka topic, keyed by job ID so
// events for one job land on one partition in order.
type KafkaNotifier struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaNotifier creates a Kafka notifier from configuration.
func NewKafkaNotifier(cfg config.NotifyConfig, logger zerolog.Logger) *KafkaNotifier {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaNotifier{
		writer: writer,
		logger: logger,
	}
}

// Notify publishes the payload as a JSON message.
func (n *KafkaNotifier) Notify(ctx context.Context, payload workflow.Notification) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.JobID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write notification: %w", err)
	}

	n.logger.Debug().
		Str("job_id", payload.JobID).
		Str("status", payload.Status).
		Msg("notification published")
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
