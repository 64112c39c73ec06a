package service

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]*models.Product
	errs     map[string]error

	GetCalls []string
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	c := &fakeCatalog{
		products: make(map[string]*models.Product),
		errs:     make(map[string]error),
	}
	for i := range products {
		p := products[i]
		c.products[p.ID] = &p
	}
	return c
}

func (c *fakeCatalog) ListProducts(context.Context) ([]models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, *p)
	}
	return out, nil
}

func (c *fakeCatalog) GetProduct(_ context.Context, id string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls = append(c.GetCalls, id)
	if err, ok := c.errs[id]; ok {
		return nil, err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

type fakeOrders struct {
	err    error
	nextID string

	Created []models.Order
}

func (r *fakeOrders) CreateOrder(_ context.Context, order *models.Order) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	cp := *order
	cp.Items = append([]models.LineItem(nil), order.Items...)
	r.Created = append(r.Created, cp)
	if r.nextID == "" {
		return "order-1", nil
	}
	return r.nextID, nil
}

type fakePublisher struct {
	err error

	Published []*models.Order
}

func (p *fakePublisher) PublishOrderPlaced(_ context.Context, order *models.Order) error {
	p.Published = append(p.Published, order)
	return p.err
}

type fakeCart struct {
	ids      []string
	clearErr error

	ClearCalls int
}

func (c *fakeCart) Read(context.Context) []string {
	return append([]string{}, c.ids...)
}

func (c *fakeCart) Clear(context.Context) error {
	c.ClearCalls++
	if c.clearErr != nil {
		return c.clearErr
	}
	c.ids = nil
	return nil
}

func product(id string, price int64, currency string) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(price),
		Currency: currency,
	}
}
