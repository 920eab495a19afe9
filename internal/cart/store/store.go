// Package store implements the shopper's cart: a small, persisted list of
// product snapshots with quantities.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
)

// StorageKey is where the serialised item list lives in the shopper's local
// storage.
const StorageKey = "user_cart"

type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, data []byte) error
	Delete(key string) error
}

// Store never holds two items with the same product id and never holds an
// item with quantity below one. Every mutation is written through to storage
// before it returns.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	items   []domain.CartItem
	open    bool
	logger  *zap.Logger
}

// New rehydrates the cart from storage. A missing or corrupt payload yields
// an empty cart.
func New(storage Storage, logger *zap.Logger) *Store {
	s := &Store{storage: storage, logger: logger}

	raw, ok, err := storage.Get(StorageKey)
	switch {
	case err != nil:
		logger.Warn("cart storage unreadable, starting empty", zap.Error(err))
	case ok:
		items, err := decodeItems(raw)
		if err != nil {
			logger.Warn("discarding corrupt cart payload", zap.Error(err))
		} else {
			s.items = items
		}
	}

	return s
}

// Add puts one more unit of the product in the cart and opens the cart panel.
func (s *Store) Add(item domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(item.ID); i >= 0 {
		if s.items[i].Quantity < domain.MaxCartQuantity {
			s.items[i].Quantity++
		}
	} else {
		item.Quantity = 1
		s.items = append(s.items, item)
	}
	s.open = true
	s.persist()
}

func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(productID)
}

// UpdateQuantity sets the quantity of an item already in the cart, capped at
// domain.MaxCartQuantity. A quantity of zero or less removes it; unknown
// products are ignored.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.remove(productID)
		return
	}
	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.items[i].Quantity = min(quantity, domain.MaxCartQuantity)
	s.persist()
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persist()
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}

func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
}

func (s *Store) indexOf(productID string) int {
	for i, item := range s.items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) remove(productID string) {
	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persist()
}

// persist must be called with the write lock held. Storage failures are
// logged; the in-memory cart stays authoritative for the session.
func (s *Store) persist() {
	items := s.items
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("encoding cart", zap.Error(err))
		return
	}
	if err := s.storage.Set(StorageKey, data); err != nil {
		s.logger.Error("persisting cart", zap.Error(err))
	}
}

var errCorruptCart = errors.New("corrupt cart payload")

func decodeItems(raw []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptCart, err)
	}

	seen := make(map[string]struct{}, len(items))
	for idx, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("%w: item %d has no id", errCorruptCart, idx)
		}
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", errCorruptCart, item.ID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %s has quantity %d", errCorruptCart, item.ID, item.Quantity)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: item %s has negative price", errCorruptCart, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return items, nil
}
