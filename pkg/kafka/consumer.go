package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries bounds handler attempts per message before it is
// dead-lettered (or committed and skipped when no DLQ is configured).
const maxHandlerRetries = 3

// Handler processes one event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer settings.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// Consumer reads events from one topic and dispatches them to a handler.
// A failing handler never propagates an error back to the producer side:
// after the retry budget is exhausted the message is dead-lettered and
// committed, so indexing failures cannot block catalog mutations.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   Handler
	dlq       *DLQProducer
	closeOnce sync.Once
}

// NewConsumer creates a consumer for a topic and group. dlq may be nil.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		reader:  r,
		logger:  logger,
		handler: handler,
		dlq:     dlq,
	}
}

// Start consumes messages until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", slog.String("topic", c.reader.Config().Topic))
			return c.Close()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
				continue
			}

			event, err := UnmarshalEvent(msg.Value)
			if err != nil {
				c.logger.Error("failed to unmarshal event",
					slog.String("error", err.Error()),
					slog.String("topic", msg.Topic),
				)
				c.commit(ctx, msg)
				continue
			}

			lastErr := c.process(ctx, event, msg)
			if lastErr != nil {
				consumerMessagesFailed.WithLabelValues(msg.Topic).Inc()
				c.logger.Error("handler failed after all retries",
					slog.String("event_type", event.EventType),
					slog.String("aggregate_id", event.AggregateID),
					slog.String("error", lastErr.Error()),
					slog.String("topic", msg.Topic),
					slog.Int64("offset", msg.Offset),
				)
				if c.dlq != nil {
					if dlqErr := c.dlq.Publish(ctx, msg, lastErr, c.reader.Config().GroupID); dlqErr != nil {
						c.logger.Error("failed to dead-letter message", slog.String("error", dlqErr.Error()))
					}
				}
			} else {
				consumerMessagesProcessed.WithLabelValues(msg.Topic).Inc()
			}

			c.commit(ctx, msg)
		}
	}
}

// process runs the handler with bounded retries and linear backoff.
func (c *Consumer) process(ctx context.Context, event *Event, msg kafka.Message) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		if err := c.handler(ctx, event); err != nil {
			lastErr = err
			c.logger.Warn("handler failed, will retry",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.String("error", err.Error()),
				slog.Int("attempt", attempt),
			)
			if attempt < maxHandlerRetries {
				select {
				case <-ctx.Done():
					return lastErr
				case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
				}
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message", slog.String("error", err.Error()))
	}
}

// Close closes the consumer. Safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// TopicPrefix is the prefix for all catalog event topics.
const TopicPrefix = "commerce"

// Topic constructs a fully-qualified topic name, e.g. commerce.product.updated.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
