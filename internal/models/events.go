package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced = "ORDER_PLACED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published after a checkout order is persisted
type OrderPlacedEvent struct {
	BaseEvent
	OrderID      string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	ItemCount    int             `json:"item_count"`
}

// OrderFeedEntry is the compact form of an order kept in the admin feed.
type OrderFeedEntry struct {
	OrderID      string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	ItemCount    int             `json:"item_count"`
	PlacedAt     time.Time       `json:"placed_at"`
}
