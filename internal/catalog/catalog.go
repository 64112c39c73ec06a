package catalog

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"storefront/internal/models"
)

// Query is the read side of the product document store. GetProduct
// returns models.ErrNotFound when the id does not resolve.
type Query interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// Filter constrains a product listing. Empty fields do not constrain.
type Filter struct {
	Type     string `form:"type"`
	Category string `form:"category"`
}

// FilterProducts returns the products whose type and category equal the
// non-empty filter fields exactly. Relative order is preserved and the
// input slice is not modified.
func FilterProducts(products []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByCategory is the category page listing.
func ByCategory(products []models.Product, category string) []models.Product {
	return FilterProducts(products, Filter{Category: category})
}

// CategoryTitle upper-cases the first letter of a category for display.
func CategoryTitle(category string) string {
	r, size := utf8.DecodeRuneInString(category)
	if r == utf8.RuneError {
		return category
	}
	return string(unicode.ToUpper(r)) + category[size:]
}

// ParseFilter trims the raw query values into a Filter.
func ParseFilter(typ, category string) Filter {
	return Filter{Type: strings.TrimSpace(typ), Category: strings.TrimSpace(category)}
}
