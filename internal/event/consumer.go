// Package event consumes catalog domain events and drives index
// synchronization.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/trendora/searchsync/internal/domain"
	pkgkafka "github.com/trendora/searchsync/pkg/kafka"
)

// Kafka topics consumed for index synchronization.
var (
	TopicProductCreated     = pkgkafka.Topic("product", "created")
	TopicProductUpdated     = pkgkafka.Topic("product", "updated")
	TopicProductDeleted     = pkgkafka.Topic("product", "deleted")
	TopicVariantCreated     = pkgkafka.Topic("product_variant", "created")
	TopicVariantUpdated     = pkgkafka.Topic("product_variant", "updated")
	TopicTranslationCreated = pkgkafka.Topic("translation", "created")
	TopicTranslationUpdated = pkgkafka.Topic("translation", "updated")
	TopicOrderPlaced        = pkgkafka.Topic("order", "placed")
)

// Topics lists every topic the consumer subscribes to.
func Topics() []string {
	return []string{
		TopicProductCreated,
		TopicProductUpdated,
		TopicProductDeleted,
		TopicVariantCreated,
		TopicVariantUpdated,
		TopicTranslationCreated,
		TopicTranslationUpdated,
		TopicOrderPlaced,
	}
}

// Synchronizer is the part of the service layer the consumer drives.
type Synchronizer interface {
	ProductCreated(ctx context.Context, productID string) error
	ProductUpdated(ctx context.Context, productID string) error
	ProductDeleted(ctx context.Context, slug string) error
	VariantChanged(ctx context.Context, productID string, created bool) error
	TranslationChanged(ctx context.Context, kind, productID string) error
	OrderPlaced(ctx context.Context, lines []domain.OrderLine) error
}

// ProductEventData is the payload of product.created and product.updated.
type ProductEventData struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// ProductDeletedData is the payload of product.deleted. The slug identifies
// the index documents: deletes arrive after the product row is gone.
type ProductDeletedData struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// VariantEventData is the payload of product_variant events.
type VariantEventData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
}

// TranslationEventData is the payload of translation events. EntityKind
// names the translated entity type; EntityID is the translated entity's ID,
// a product ID for product translations.
type TranslationEventData struct {
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Locale     string `json:"locale"`
}

// OrderLineData is one line of an order.placed payload.
type OrderLineData struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderPlacedData is the payload of order.placed.
type OrderPlacedData struct {
	OrderID string          `json:"order_id"`
	Lines   []OrderLineData `json:"lines"`
}

// Consumer routes domain events to the synchronizer.
type Consumer struct {
	sync   Synchronizer
	logger *slog.Logger
}

// NewConsumer creates an event consumer over the synchronizer.
func NewConsumer(sync Synchronizer, logger *slog.Logger) *Consumer {
	return &Consumer{sync: sync, logger: logger}
}

// Handle processes one event based on its type. Unknown event types are
// logged and acknowledged so they are not retried forever.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated:
		return c.handleProduct(ctx, event, true)
	case TopicProductUpdated:
		return c.handleProduct(ctx, event, false)
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	case TopicVariantCreated:
		return c.handleVariant(ctx, event, true)
	case TopicVariantUpdated:
		return c.handleVariant(ctx, event, false)
	case TopicTranslationCreated, TopicTranslationUpdated:
		return c.handleTranslation(ctx, event)
	case TopicOrderPlaced:
		return c.handleOrderPlaced(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleProduct(ctx context.Context, event *pkgkafka.Event, created bool) error {
	var data ProductEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if created {
		if err := c.sync.ProductCreated(ctx, data.ID); err != nil {
			return fmt.Errorf("sync created product %s: %w", data.ID, err)
		}
	} else {
		if err := c.sync.ProductUpdated(ctx, data.ID); err != nil {
			return fmt.Errorf("sync updated product %s: %w", data.ID, err)
		}
	}

	c.logger.InfoContext(ctx, "product event processed",
		slog.String("event_type", event.EventType),
		slog.String("product_id", data.ID),
	)
	return nil
}

func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}

	if err := c.sync.ProductDeleted(ctx, data.Slug); err != nil {
		return fmt.Errorf("sync deleted product %s: %w", data.Slug, err)
	}

	c.logger.InfoContext(ctx, "product delete processed",
		slog.String("slug", data.Slug),
	)
	return nil
}

func (c *Consumer) handleVariant(ctx context.Context, event *pkgkafka.Event, created bool) error {
	var data VariantEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if err := c.sync.VariantChanged(ctx, data.ProductID, created); err != nil {
		return fmt.Errorf("sync variant change for product %s: %w", data.ProductID, err)
	}

	c.logger.InfoContext(ctx, "variant event processed",
		slog.String("event_type", event.EventType),
		slog.String("product_id", data.ProductID),
	)
	return nil
}

func (c *Consumer) handleTranslation(ctx context.Context, event *pkgkafka.Event) error {
	var data TranslationEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	if err := c.sync.TranslationChanged(ctx, data.EntityKind, data.EntityID); err != nil {
		return fmt.Errorf("sync translation for %s %s: %w", data.EntityKind, data.EntityID, err)
	}
	return nil
}

func (c *Consumer) handleOrderPlaced(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderPlacedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order.placed data: %w", err)
	}

	lines := make([]domain.OrderLine, 0, len(data.Lines))
	for _, l := range data.Lines {
		lines = append(lines, domain.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	if err := c.sync.OrderPlaced(ctx, lines); err != nil {
		return fmt.Errorf("sync order %s: %w", data.OrderID, err)
	}

	c.logger.InfoContext(ctx, "order event processed",
		slog.String("order_id", data.OrderID),
		slog.Int("lines", len(lines)),
	)
	return nil
}
