package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// DLQTopicPrefix prefixes all dead-letter topics.
const DLQTopicPrefix = "commerce.dlq"

// DLQProducer publishes messages that exhausted their retry budget.
type DLQProducer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewDLQProducer creates a DLQ producer for the given brokers.
func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1,
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}

	return &DLQProducer{writer: w, logger: logger}
}

// DLQTopic maps a source topic to its dead-letter topic.
func DLQTopic(originalTopic string) string {
	return fmt.Sprintf("%s.%s", DLQTopicPrefix, originalTopic)
}

// Publish forwards a failed message to its DLQ topic, annotated with the
// original coordinates and the last handler error.
func (d *DLQProducer) Publish(ctx context.Context, original kafka.Message, lastErr error, group string) error {
	topic := DLQTopic(original.Topic)

	headers := make([]kafka.Header, 0, len(original.Headers)+4)
	headers = append(headers, original.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.original_topic", Value: []byte(original.Topic)},
		kafka.Header{Key: "dlq.original_offset", Value: []byte(fmt.Sprintf("%d", original.Offset))},
		kafka.Header{Key: "dlq.consumer_group", Value: []byte(group)},
	)
	if lastErr != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(lastErr.Error())})
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     original.Key,
		Value:   original.Value,
		Headers: headers,
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to DLQ %s: %w", topic, err)
	}

	d.logger.Warn("message sent to DLQ",
		slog.String("dlq_topic", topic),
		slog.String("original_topic", original.Topic),
		slog.Int64("offset", original.Offset),
	)

	return nil
}

// Close closes the DLQ producer.
func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
