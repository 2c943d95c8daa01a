// Package catalog holds the in-memory product catalog, the running sales
// aggregate, flash-sale countdowns, and the pitch script templates.
package catalog

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/larisin-live/backend/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// Bus publishes events to the presentation layer.
type Bus interface {
	Publish(event string, payload any)
}

// Store is the in-memory product catalog. State is process-resident: the
// demo storefront has no durable store. All methods are safe for
// concurrent use and mutate products atomically with respect to timer
// callbacks.
type Store struct {
	mu       sync.RWMutex
	products []*models.Product
	stats    models.SalesStats
}

// NewStore creates an empty catalog.
func NewStore() *Store {
	return &Store{}
}

// Add registers a product, assigning an ID and creation time when unset.
func (s *Store) Add(p *models.Product) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products = append(s.products, &cp)
}

// Delete removes a product by ID.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the product with the given ID.
func (s *Store) Get(id uuid.UUID) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return *p, true
		}
	}
	return models.Product{}, false
}

// List returns product copies in insertion order.
func (s *Store) List() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	for i, p := range s.products {
		out[i] = *p
	}
	return out
}

// Len returns the number of products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// ApplyOrder folds a confirmed order into the sales aggregate and the
// matching product. The product is looked up by name best-effort: an
// unknown product still counts toward orders and revenue, matching the
// lenient storefront semantics. Stock is clamped at zero, never negative.
func (s *Store) ApplyOrder(o models.Order) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Orders++
	s.stats.Revenue = s.stats.Revenue.Add(o.Amount)
	for _, p := range s.products {
		if p.Name == o.Product {
			p.Stock -= o.Quantity
			if p.Stock < 0 {
				p.Stock = 0
			}
			p.Sold += o.Quantity
			return *p, true
		}
	}
	return models.Product{}, false
}

// Stats returns the running sales aggregate.
func (s *Store) Stats() models.SalesStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats.Revenue.IsZero() {
		return models.SalesStats{Orders: s.stats.Orders, Revenue: decimal.Zero}
	}
	return s.stats
}
