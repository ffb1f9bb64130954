// Package kafka consumes and publishes user registration events.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"userdata/internal/observability"

	kgo "github.com/segmentio/kafka-go"
)

// Handler processes one message. Errors wrapping ErrMalformedEvent are
// committed at once; any other error is retried up to maxAttempts times
// before the message is logged and skipped.
type Handler func(ctx context.Context, topic string, key, value []byte) error

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kgo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

// defaultMaxAttempts matches ten deliveries before a failing record is skipped.
const defaultMaxAttempts = 10

// Consumer reads one topic as a consumer group member.
type Consumer struct {
	reader      messageReader
	handle      Handler
	logger      *slog.Logger
	retryDelay  time.Duration
	maxAttempts int
	brokers    []string
	groupID    string
	topic      string
}

// NewConsumer returns a consumer group member reading topic from the
// comma-separated brokers list.
func NewConsumer(brokers, groupID, topic string, h Handler, logger *slog.Logger) *Consumer {
	addrs := splitBrokers(brokers)
	return &Consumer{
		reader: kgo.NewReader(kgo.ReaderConfig{
			Brokers:        addrs,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: time.Second,
		}),
		handle:      h,
		logger:      logger,
		retryDelay:  time.Second,
		maxAttempts: defaultMaxAttempts,
		brokers:     addrs,
		groupID:     groupID,
		topic:       topic,
	}
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Run fetches, handles and commits messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		_ = c.reader.Close()
	}()

	c.logger.Info("Kafka consumer started",
		slog.String("group", c.groupID),
		slog.String("topic", c.topic),
		slog.Any("brokers", c.brokers),
	)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Kafka consumer shutting down")
				return nil
			}
			c.logger.Warn("Kafka fetch error", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		result, ok := c.process(ctx, m)
		if !ok {
			c.logger.Info("Kafka consumer shutting down")
			return nil
		}
		observability.KafkaMessagesTotal.WithLabelValues(m.Topic, result).Inc()

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Warn("Kafka commit error", slog.String("error", err.Error()))
		}
	}
}

// process runs the handler with retries. ok is false when ctx ended before
// the message was settled, in which case it must not be committed.
func (c *Consumer) process(ctx context.Context, m kgo.Message) (result string, ok bool) {
	if c.handle == nil {
		return "ok", true
	}
	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := c.handle(ctx, m.Topic, m.Key, m.Value)
		if err == nil {
			return "ok", true
		}
		if ctx.Err() != nil {
			return "", false
		}
		if errors.Is(err, ErrMalformedEvent) {
			c.logger.Error("Kafka message malformed, skipping",
				slog.String("topic", m.Topic),
				slog.Int64("offset", m.Offset),
				slog.String("error", err.Error()),
			)
			return "malformed", true
		}
		if attempt >= attempts {
			c.logger.Error("Kafka handler failed, skipping",
				slog.String("topic", m.Topic),
				slog.Int64("offset", m.Offset),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			return "error", true
		}
		c.logger.Warn("Kafka handler error, retrying",
			slog.String("topic", m.Topic),
			slog.Int64("offset", m.Offset),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(c.retryDelay):
		}
	}
}
