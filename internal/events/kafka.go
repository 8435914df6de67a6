// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/domain/order"
)

// orderPlacedEvent is the wire form of an order announcement. Consumers get
// the full pricing snapshot so they never need to read the orders table.
type orderPlacedEvent struct {
	OrderID       string       `json:"order_id"`
	SessionID     string       `json:"session_id"`
	Items         []order.Item `json:"items"`
	Subtotal      string       `json:"subtotal"`
	Discount      string       `json:"discount"`
	Tax           string       `json:"tax"`
	Total         string       `json:"total"`
	PromoCode     string       `json:"promo_code,omitempty"`
	PaymentMethod string       `json:"payment_method"`
	CreatedAt     time.Time    `json:"created_at"`
}

var _ order.Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher implements order.Publisher on top of an async kafka.Writer.
// Writes are fire-and-forget: delivery errors surface through the writer's
// completion callback, never to the caller.
type KafkaPublisher struct {
	writer *kafka.Writer
	lg     *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, lg *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{lg: lg}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				p.lg.Warn("kafka delivery failed",
					zap.Int("messages", len(messages)),
					zap.Error(err))
			}
		},
	}
	return p
}

// OrderPlaced enqueues an order.placed message keyed by order ID.
func (p *KafkaPublisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	evt := orderPlacedEvent{
		OrderID:       o.ID,
		SessionID:     o.SessionID,
		Items:         o.Items,
		Subtotal:      o.Subtotal.String(),
		Discount:      o.Discount.String(),
		Tax:           o.Tax.String(),
		Total:         o.Total.String(),
		PromoCode:     o.PromoCode,
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     o.CreatedAt,
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encode order event")
	}

	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: value,
		Time:  o.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "enqueue order event")
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
