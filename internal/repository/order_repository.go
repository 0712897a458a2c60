package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/heritage-handlooms/checkout-api/internal/models"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository stores placed orders
type OrderRepository interface {
	Save(ctx context.Context, order models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	CountByCustomer(ctx context.Context, customerID string) (int, error)
}

// InMemoryOrderRepository implements OrderRepository with in-memory storage
type InMemoryOrderRepository struct {
	mu         sync.RWMutex
	orders     map[string]models.Order
	byCustomer map[string]int
}

// NewInMemoryOrderRepository creates an empty order repository
func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{
		orders:     make(map[string]models.Order),
		byCustomer: make(map[string]int),
	}
}

// Save stores an order. Saving an existing id replaces it.
func (r *InMemoryOrderRepository) Save(ctx context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; !exists && order.CustomerID != "" {
		r.byCustomer[order.CustomerID]++
	}
	r.orders[order.ID] = order
	return nil
}

// GetByID returns an order by its ID
func (r *InMemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// CountByCustomer returns how many orders the customer has placed
func (r *InMemoryOrderRepository) CountByCustomer(ctx context.Context, customerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCustomer[customerID], nil
}
