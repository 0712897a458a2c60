package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/heritage-handlooms/checkout-api/internal/models"
)

var (
	ErrCartNotFound = errors.New("cart not found")
)

// CartRepository stores shopper carts
type CartRepository interface {
	Save(ctx context.Context, cart models.Cart) error
	GetByID(ctx context.Context, id string) (*models.Cart, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryCartRepository implements CartRepository with in-memory storage
type InMemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]models.Cart
}

// NewInMemoryCartRepository creates an empty cart repository
func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{
		carts: make(map[string]models.Cart),
	}
}

// Save stores a copy of the cart
func (r *InMemoryCartRepository) Save(ctx context.Context, cart models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.carts[cart.ID] = copyCart(cart)
	return nil
}

// GetByID returns a copy of the cart so callers can edit it freely
func (r *InMemoryCartRepository) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, exists := r.carts[id]
	if !exists {
		return nil, ErrCartNotFound
	}
	cart = copyCart(cart)
	return &cart, nil
}

// Delete removes a cart
func (r *InMemoryCartRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.carts[id]; !exists {
		return ErrCartNotFound
	}
	delete(r.carts, id)
	return nil
}

func copyCart(c models.Cart) models.Cart {
	c.Lines = append([]models.Line(nil), c.Lines...)
	if c.Promotion != nil {
		p := *c.Promotion
		c.Promotion = &p
	}
	return c
}
