package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// EventLog records which events were already handled
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// FeedWriter appends to the capped admin order feed
type FeedWriter interface {
	PushOrderFeed(ctx context.Context, entry []byte, max int) error
}

// OrderWorker keeps the admin order feed up to date from ORDER_PLACED events
type OrderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	events       EventLog
	feed         FeedWriter
	feedSize     int
	logger       *zap.Logger
}

// NewOrderWorker creates a new order worker
func NewOrderWorker(
	consumer *broker.Consumer,
	events EventLog,
	feed FeedWriter,
	feedSize int,
) *OrderWorker {
	w := &OrderWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		events:       events,
		feed:         feed,
		feedSize:     feedSize,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnOrderPlaced(w.HandleOrderPlaced)
	return w
}

// Start consumes until ctx is cancelled
func (w *OrderWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting order worker", zap.Int("feed_size", w.feedSize))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *OrderWorker) Stop() error {
	w.logger.Info("Stopping order worker")
	return w.consumer.Close()
}

// HandleOrderPlaced pushes the order onto the feed. Redelivered events are
// skipped.
func (w *OrderWorker) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderWorker.HandleOrderPlaced")
	defer span.End()

	processed, err := w.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	entry, err := json.Marshal(models.OrderFeedEntry{
		OrderID:      event.OrderID,
		CustomerName: event.CustomerName,
		Phone:        event.Phone,
		Total:        event.Total,
		Currency:     event.Currency,
		ItemCount:    event.ItemCount,
		PlacedAt:     event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to encode feed entry: %w", err)
	}

	if err := w.feed.PushOrderFeed(ctx, entry, w.feedSize); err != nil {
		return fmt.Errorf("failed to push order feed: %w", err)
	}

	if err := w.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	util.OrderEventsProcessedTotal.Inc()
	w.logger.Info("Order added to admin feed",
		zap.String("order_id", event.OrderID),
		zap.String("event_id", event.EventID))

	return nil
}
