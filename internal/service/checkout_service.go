package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderRepository persists submitted orders. Orders are append-only.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) (string, error)
}

// OrderEventPublisher announces persisted orders
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
}

// Cart is the visitor's cart as seen by checkout. *cart.Store satisfies it.
type Cart interface {
	Read(ctx context.Context) []string
	Clear(ctx context.Context) error
}

// Summary is the pre-submission view of the checkout page.
type Summary struct {
	Items    []models.LineItem `json:"items"`
	Total    decimal.Decimal   `json:"total"`
	Currency string            `json:"currency"`
	Display  string            `json:"display"`
}

// CheckoutService turns a cart into an order
type CheckoutService struct {
	aggregator *CartAggregator
	orders     OrderRepository
	publisher  OrderEventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewCheckoutService creates a new checkout service. publisher may be nil.
func NewCheckoutService(
	aggregator *CartAggregator,
	orders OrderRepository,
	publisher OrderEventPublisher,
) *CheckoutService {
	return &CheckoutService{
		aggregator: aggregator,
		orders:     orders,
		publisher:  publisher,
		logger:     util.GetLogger(),
		now:        time.Now,
	}
}

// PrepareSummary aggregates ids for display. It has no side effects.
func (s *CheckoutService) PrepareSummary(ctx context.Context, ids []string) (*Summary, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PrepareSummary")
	defer span.End()

	agg, err := s.aggregator.Aggregate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cart: %w", err)
	}

	return &Summary{
		Items:    agg.LineItems(),
		Total:    agg.Total,
		Currency: agg.Currency,
		Display:  agg.Display(),
	}, nil
}

// Submit places an order for the current cart contents. A zero total is
// rejected with models.ErrValidation before anything is written. When the
// write fails the cart is left as it was. After a successful write the cart
// is cleared and ORDER_PLACED is published; failures in either step are
// logged and do not undo the order.
func (s *CheckoutService) Submit(ctx context.Context, c Cart, customer models.Customer) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Submit")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	ids := c.Read(ctx)
	agg, err := s.aggregator.Aggregate(ctx, ids)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("catalog").Inc()
		return nil, fmt.Errorf("failed to aggregate cart: %w", err)
	}

	if !agg.Total.IsPositive() {
		util.CheckoutFailedTotal.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("%w: cart total must be greater than zero", models.ErrValidation)
	}

	order := &models.Order{
		Customer: models.Customer{
			FullName: customer.FullName,
			Phone:    customer.Phone,
			Wishes:   customer.Wishes,
		},
		Items:     agg.LineItems(),
		Total:     agg.Total,
		Currency:  agg.Currency,
		Status:    models.OrderStatusActive,
		Timestamp: s.now().UTC(),
	}

	id, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("persistence").Inc()
		span.RecordError(err)
		s.logger.Error("Failed to persist order", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	order.ID = id
	span.SetAttributes(attribute.String("order.id", id))

	if err := c.Clear(ctx); err != nil {
		s.logger.Error("Order persisted but cart could not be cleared",
			zap.String("order_id", id),
			zap.Error(err))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			s.logger.Warn("Failed to publish order placed event",
				zap.String("order_id", id),
				zap.Error(err))
		}
	}

	util.OrdersSubmittedTotal.Inc()
	s.logger.Info("Order submitted",
		zap.String("order_id", id),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.String()),
		zap.String("currency", order.Currency))

	return order, nil
}
