package store

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type orderItemRow struct {
	OrderID string `db:"order_id"`
	models.LineItem
}

// CreateOrder writes the order and its line items in one transaction and
// returns the assigned id. Orders are append-only.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) (string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, full_name, phone, wishes, total, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, order.Customer.FullName, order.Customer.Phone, order.Customer.Wishes,
		order.Total, order.Currency, order.Status, order.Timestamp)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, price, currency)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, i, item.ID, item.Name, item.Price, item.Currency)
		if err != nil {
			return "", fmt.Errorf("failed to insert order item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit order: %w", err)
	}
	return id, nil
}

// ListOrdersByStatus retrieves orders with their items, newest first
func (s *Store) ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	var rows []models.OrderRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, full_name, phone, wishes, total, currency, status, created_at
		 FROM orders WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	if len(rows) == 0 {
		return orders, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	query, args, err := sqlx.In(
		`SELECT order_id, product_id, name, price, currency
		 FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []orderItemRow
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}

	byOrder := make(map[string][]models.LineItem, len(rows))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it.LineItem)
	}

	for _, r := range rows {
		orders = append(orders, orderFromRow(r, byOrder[r.ID]))
	}
	return orders, nil
}

func orderFromRow(r models.OrderRow, items []models.LineItem) models.Order {
	if items == nil {
		items = []models.LineItem{}
	}
	return models.Order{
		ID: r.ID,
		Customer: models.Customer{
			FullName: r.FullName,
			Phone:    r.Phone,
			Wishes:   r.Wishes,
		},
		Items:     items,
		Total:     r.Total,
		Currency:  r.Currency,
		Status:    r.Status,
		Timestamp: r.CreatedAt.UTC(),
	}
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
