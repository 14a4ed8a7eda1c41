// Package consumer clears the cart after a completed checkout, driven
// by checkout-completed events from the message broker.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// CartClearer is the one store operation the consumer needs.
type CartClearer interface {
	Clear(ctx context.Context)
}

// CheckoutCompletedEvent is the broker payload published when a
// checkout finishes. CartKey identifies which persisted cart the
// checkout consumed.
type CheckoutCompletedEvent struct {
	CheckoutID string `json:"checkout_id"`
	CartKey    string `json:"cart_key"`
}

type Consumer struct {
	store   CartClearer
	cartKey string
	reader  *kafka.Reader
}

func NewConsumer(store CartClearer, cartKey string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-completed",
		GroupID:  "storefront",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{store: store, cartKey: cartKey, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}
	c.handle(ctx, m.Value)
}

// handle applies one checkout-completed payload. Malformed payloads and
// events for other carts are logged and skipped; they never stop the
// consumer.
func (c *Consumer) handle(ctx context.Context, value []byte) {
	var event CheckoutCompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("error parsing checkout event: %v", err)
		return
	}

	if event.CartKey != c.cartKey {
		return
	}

	c.store.Clear(ctx)
	log.Printf("checkout %s completed, cart cleared", event.CheckoutID)
}
