package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(products ...models.Product) (*CartAggregator, *fakeCatalog) {
	c := newFakeCatalog(products...)
	return NewCartAggregator(c, "UAH", 4), c
}

func TestAggregate_EmptyCart(t *testing.T) {
	agg, catalog := newTestAggregator()

	result, err := agg.Aggregate(context.Background(), []string{})

	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Empty(t, result.Items)
	assert.Equal(t, "UAH", result.Currency)
	assert.Empty(t, catalog.GetCalls)
}

func TestAggregate_SkipsDanglingIDs(t *testing.T) {
	agg, _ := newTestAggregator(product("p1", 100, "UAH"))

	result, err := agg.Aggregate(context.Background(), []string{"p1", "gone"})

	require.NoError(t, err)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "UAH", result.Currency)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "p1", result.Items[0].ID)
}

func TestAggregate_AllDanglingUsesFallback(t *testing.T) {
	agg, _ := newTestAggregator()

	result, err := agg.Aggregate(context.Background(), []string{"x", "y"})

	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
	assert.Equal(t, "UAH", result.Currency)
}

func TestAggregate_DuplicatesCountTwice(t *testing.T) {
	agg, _ := newTestAggregator(product("p1", 250, "UAH"), product("p2", 100, "UAH"))

	result, err := agg.Aggregate(context.Background(), []string{"p1", "p2", "p1"})

	require.NoError(t, err)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(600)))
	require.Len(t, result.Items, 3)
}

func TestAggregate_PreservesCartOrder(t *testing.T) {
	products := []models.Product{}
	ids := []string{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		products = append(products, product(id, 10, "UAH"))
		ids = append(ids, id)
	}
	ids = append(ids, "missing", "c", "a")
	agg, _ := newTestAggregator(products...)

	result, err := agg.Aggregate(context.Background(), ids)

	require.NoError(t, err)
	got := make([]string, 0, len(result.Items))
	for _, it := range result.Items {
		got = append(got, it.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "c", "a"}, got)
}

func TestAggregate_LastCurrencyWins(t *testing.T) {
	agg, _ := newTestAggregator(product("p1", 10, "UAH"), product("p2", 5, "USD"))

	result, err := agg.Aggregate(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Equal(t, "USD", result.Currency)

	result, err = agg.Aggregate(context.Background(), []string{"p2", "p1"})
	require.NoError(t, err)
	assert.Equal(t, "UAH", result.Currency)
}

func TestAggregate_DecimalPrices(t *testing.T) {
	p1 := product("p1", 0, "UAH")
	p1.Price = decimal.RequireFromString("0.10")
	p2 := product("p2", 0, "UAH")
	p2.Price = decimal.RequireFromString("0.20")
	agg, _ := newTestAggregator(p1, p2)

	result, err := agg.Aggregate(context.Background(), []string{"p1", "p2"})

	require.NoError(t, err)
	assert.Equal(t, "0.3 UAH", result.Display())
}

func TestAggregate_LookupErrorAborts(t *testing.T) {
	agg, catalog := newTestAggregator(product("p1", 10, "UAH"))
	boom := errors.New("connection refused")
	catalog.errs["p2"] = boom

	result, err := agg.Aggregate(context.Background(), []string{"p1", "p2"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
}

func TestNewCartAggregator_Defaults(t *testing.T) {
	agg := NewCartAggregator(newFakeCatalog(), "", 0)

	assert.Equal(t, DefaultFallbackCurrency, agg.fallbackCurrency)
	assert.Equal(t, 1, agg.concurrency)
}
