// Package event publishes storefront analytics events to Kafka. Publishing is
// fire-and-forget from the shopper's point of view; a broker outage never
// fails a cart operation.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BadarHossain1/harris-vale-storefront/internal/cart"
	pkgkafka "github.com/BadarHossain1/harris-vale-storefront/pkg/kafka"
)

// Kafka topics for storefront cart events.
const (
	TopicCartUpdated = "storefront.cart.updated"
	TopicCartCleared = "storefront.cart.cleared"
)

const aggregateTypeCart = "cart"

const sourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	ActorID    string         `json:"actor_id"`
	Guest      bool           `json:"guest"`
	Lines      []CartLineData `json:"lines"`
	TotalItems int            `json:"total_items"`
	TotalPrice float64        `json:"total_price"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Size      string  `json:"size"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	ActorID string `json:"actor_id"`
	Guest   bool   `json:"guest"`
}

// Producer publishes storefront events.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a producer. kafka may be nil to disable publishing.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishCartUpdated publishes a cart.updated event with the post-mutation
// snapshot.
func (p *Producer) PublishCartUpdated(ctx context.Context, actorID string, guest bool, snap cart.Snapshot) error {
	if p.kafka == nil {
		return nil
	}

	lines := make([]CartLineData, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = CartLineData{
			ProductID: l.ProductID,
			Name:      l.Name,
			Size:      string(l.Size),
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
	}

	data := CartUpdatedData{
		ActorID:    actorID,
		Guest:      guest,
		Lines:      lines,
		TotalItems: snap.TotalItems,
		TotalPrice: snap.TotalPrice,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, actorID, aggregateTypeCart, sourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("actor_id", actorID),
		slog.Int("total_items", snap.TotalItems),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, actorID string, guest bool) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(TopicCartCleared, actorID, aggregateTypeCart, sourceStorefront, CartClearedData{
		ActorID: actorID,
		Guest:   guest,
	})
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("actor_id", actorID),
	)
	return nil
}
