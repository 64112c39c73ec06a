package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultFallbackCurrency is shown when no cart item resolves.
const DefaultFallbackCurrency = "UAH"

// ResolvedItem is one cart entry joined with its product document.
type ResolvedItem struct {
	ID      string
	Product models.Product
}

// Aggregation is the resolved view of a cart.
type Aggregation struct {
	Items    []ResolvedItem
	Total    decimal.Decimal
	Currency string
}

// Display renders the total line, e.g. "1100 UAH".
func (a *Aggregation) Display() string {
	return fmt.Sprintf("%s %s", a.Total.String(), a.Currency)
}

// LineItems snapshots the resolved items in cart order.
func (a *Aggregation) LineItems() []models.LineItem {
	items := make([]models.LineItem, 0, len(a.Items))
	for _, it := range a.Items {
		items = append(items, models.LineItem{
			ID:       it.ID,
			Name:     it.Product.Name,
			Price:    it.Product.Price,
			Currency: it.Product.Currency,
		})
	}
	return items
}

// CartAggregator resolves cart ids against the catalog
type CartAggregator struct {
	catalog          catalog.Query
	fallbackCurrency string
	concurrency      int
	logger           *zap.Logger
}

// NewCartAggregator creates a new cart aggregator
func NewCartAggregator(q catalog.Query, fallbackCurrency string, concurrency int) *CartAggregator {
	if fallbackCurrency == "" {
		fallbackCurrency = DefaultFallbackCurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &CartAggregator{
		catalog:          q,
		fallbackCurrency: fallbackCurrency,
		concurrency:      concurrency,
		logger:           util.GetLogger(),
	}
}

// Aggregate resolves every id in ids. Lookups run in parallel but the
// result keeps cart order. Ids that no longer resolve are skipped; any
// other lookup error fails the whole aggregation.
//
// Currency is taken from the last resolved item, so a mixed-currency cart
// reports whichever currency comes last.
func (a *CartAggregator) Aggregate(ctx context.Context, ids []string) (*Aggregation, error) {
	ctx, span := util.StartSpan(ctx, "CartAggregator.Aggregate",
		attribute.Int("cart.size", len(ids)))
	defer span.End()

	start := time.Now()
	defer func() {
		util.CartAggregateLatency.Observe(time.Since(start).Seconds())
	}()

	products := make([]*models.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			p, err := a.catalog.GetProduct(gctx, id)
			if errors.Is(err, models.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get product %s: %w", id, err)
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	agg := &Aggregation{
		Items:    make([]ResolvedItem, 0, len(ids)),
		Total:    decimal.Zero,
		Currency: a.fallbackCurrency,
	}
	for i, p := range products {
		if p == nil {
			util.CartDanglingItemsTotal.Inc()
			a.logger.Warn("Cart item no longer in catalog, skipping",
				zap.String("product_id", ids[i]))
			continue
		}
		agg.Items = append(agg.Items, ResolvedItem{ID: ids[i], Product: *p})
		agg.Total = agg.Total.Add(p.Price)
		agg.Currency = p.Currency
	}

	return agg, nil
}
