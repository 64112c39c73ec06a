// Package cart keeps the visitor's cart: an ordered list of product ids in
// client-local storage. Duplicates are intentional and represent quantity.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/localstore"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Store reads and writes the cart. All access to the cart key goes through
// it. Writes are read-modify-write without locking, so two concurrent
// writers can lose an update.
type Store struct {
	storage localstore.Storage
	logger  *zap.Logger
}

// NewStore creates a cart store over the visitor's storage
func NewStore(storage localstore.Storage) *Store {
	return &Store{
		storage: storage,
		logger:  util.GetLogger(),
	}
}

// Read returns the current cart. Missing, unreadable or corrupt storage
// yields an empty cart.
func (s *Store) Read(ctx context.Context) []string {
	raw, ok, err := s.storage.Get(ctx, localstore.KeyCart)
	if err != nil {
		util.CartReadAnomaliesTotal.Inc()
		s.logger.Warn("Cart storage unreadable, treating cart as empty", zap.Error(err))
		return []string{}
	}
	if !ok || raw == "" {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		util.CartReadAnomaliesTotal.Inc()
		s.logger.Warn("Cart storage corrupt, treating cart as empty", zap.Error(err))
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

// Add appends productID; repeated adds produce repeated entries.
func (s *Store) Add(ctx context.Context, productID string) error {
	ids := append(s.Read(ctx), productID)
	return s.write(ctx, "add", ids)
}

// SetSingle replaces the whole cart with [productID].
func (s *Store) SetSingle(ctx context.Context, productID string) error {
	return s.write(ctx, "set_single", []string{productID})
}

// Remove drops every occurrence of productID.
func (s *Store) Remove(ctx context.Context, productID string) error {
	current := s.Read(ctx)
	kept := make([]string, 0, len(current))
	for _, id := range current {
		if id != productID {
			kept = append(kept, id)
		}
	}
	return s.write(ctx, "remove", kept)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Remove(ctx, localstore.KeyCart); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return nil
}

func (s *Store) write(ctx context.Context, op string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, localstore.KeyCart, string(data)); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	util.CartMutationsTotal.WithLabelValues(op).Inc()
	return nil
}
