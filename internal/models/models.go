package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices render as JSON numbers, matching the documents in the store.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalog item. Products are owned by the document
// store and never mutated by the storefront.
type Product struct {
	ID            string              `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Description   string              `db:"description" json:"description"`
	Photo         string              `db:"photo" json:"photo"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	Currency      string              `db:"currency" json:"currency"`
	Category      string              `db:"category" json:"category"`
	Type          string              `db:"type" json:"type"`
	OnSale        bool                `db:"on_sale" json:"onSale"`
	OriginalPrice decimal.NullDecimal `db:"original_price" json:"originalPrice,omitempty"`
}

// Customer holds the free-text checkout form fields.
type Customer struct {
	FullName string `db:"full_name" json:"fullName"`
	Phone    string `db:"phone" json:"phone"`
	Wishes   string `db:"wishes" json:"wishes"`
}

// LineItem is a snapshot of a product taken at checkout time.
type LineItem struct {
	ID       string          `db:"product_id" json:"id"`
	Name     string          `db:"name" json:"name"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Currency string          `db:"currency" json:"currency"`
}

// Order represents a submitted checkout
type Order struct {
	ID        string          `json:"id"`
	Customer  Customer        `json:"customer"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderRow is the flat orders table projection of an Order.
type OrderRow struct {
	ID        string          `db:"id"`
	FullName  string          `db:"full_name"`
	Phone     string          `db:"phone"`
	Wishes    string          `db:"wishes"`
	Total     decimal.Decimal `db:"total"`
	Currency  string          `db:"currency"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

// Order statuses. Only OrderStatusActive is ever written by checkout; the
// others are set by admin tooling and are read here for listings.
const (
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
	OrderStatusDeleted   = "deleted"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusActive, OrderStatusCompleted, OrderStatusDeleted:
		return true
	}
	return false
}

// Admin is a back-office account allowed to open the protected pages.
type Admin struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
