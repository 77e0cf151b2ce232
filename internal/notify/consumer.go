package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes a single order-created event.
type Handler func(ctx context.Context, ev OrderCreatedEvent) error

// Consumer reads order-created events from Kafka as part of a consumer group.
type Consumer struct {
	reader *kafka.Reader
	lg     *zap.Logger
}

// NewConsumer creates a Consumer for the given topic and consumer group.
func NewConsumer(brokers []string, topic, groupID string, lg *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Consumer{reader: reader, lg: lg}
}

// Run consumes events until the context is cancelled. Malformed messages and
// handler failures are logged and skipped: confirmation mail is best effort,
// so a bad event never wedges the stream.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.lg.Error("read message", zap.Error(err))
			continue
		}

		var ev OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.lg.Warn("skip malformed event",
				zap.ByteString("key", msg.Key), zap.Error(err))
			continue
		}

		if err := handle(ctx, ev); err != nil {
			c.lg.Error("handle order created",
				zap.String("order_id", ev.OrderID), zap.Error(err))
		}
	}
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
