package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/oboricienne/ordering/internal/domain"
)

// OrderPlaced is published once a checkout succeeds, for the kitchen and
// order-history consumers.
type OrderPlaced struct {
	OrderID     string            `json:"order_id"`
	CartID      string            `json:"cart_id"`
	Items       []domain.LineItem `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	DeliveryFee decimal.Decimal   `json:"delivery_fee"`
	Total       decimal.Decimal   `json:"total"`
	Mode        string            `json:"mode"`
	PaymentRef  string            `json:"payment_ref,omitempty"`
	PlacedAt    time.Time         `json:"placed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event OrderPlaced) error
	Close() error
}

// KafkaPublisher writes order events to the orders topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "orders",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderPlaced) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID), // order_id for partition ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_placed")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderPlaced) error { return nil }
func (NoopPublisher) Close() error                               { return nil }
