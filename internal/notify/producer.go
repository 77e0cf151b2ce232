// Package notify carries the order-created event stream and the confirmation
// mail worker behind it. The storefront only ever submits events; delivery is
// best effort and no outcome flows back into order placement.
package notify

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	"github.com/bloomstead/flowershop/internal/domain/order"
)

// OrderCreatedEvent is the wire payload for a placed order. It carries only
// the identifier: the consumer re-reads order details by id so that edits
// between placement and send are not lost to a stale snapshot.
type OrderCreatedEvent struct {
	OrderID string `json:"orderId"`
}

var _ order.EventPublisher = (*Producer)(nil)

// Producer publishes order lifecycle events to Kafka.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a Producer writing to the given brokers and topic.
func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{writer: writer}
}

// OrderCreated submits an order-created event keyed by order id.
func (p *Producer) OrderCreated(ctx context.Context, orderID string) error {
	payload, err := json.Marshal(OrderCreatedEvent{OrderID: orderID})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(orderID),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// Close flushes and shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
