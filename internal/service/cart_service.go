package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
	"github.com/heritage-handlooms/checkout-api/internal/models"
	"github.com/heritage-handlooms/checkout-api/internal/repository"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLineNotFound    = errors.New("product is not in the cart")
	ErrEmptyCouponCode = errors.New("please enter a promo code")
)

// CartService manages carts and their applied promotion
type CartService struct {
	carts    repository.CartRepository
	products ProductRepository
	orders   *OrderService
	logger   *slog.Logger
	now      func() time.Time
}

// NewCartService creates a cart service that prices and checks out through orders
func NewCartService(carts repository.CartRepository, products ProductRepository, orders *OrderService, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		orders:   orders,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts an empty cart
func (s *CartService) Create(ctx context.Context, customerID string) (*models.CartSummary, error) {
	now := s.now().UTC()
	cart := models.Cart{
		ID:         uuid.New().String(),
		CustomerID: strings.TrimSpace(customerID),
		Lines:      []models.Line{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.summarize(ctx, cart)
}

// Summary returns the cart with its current pricing
func (s *CartService) Summary(ctx context.Context, id string) (*models.CartSummary, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, *cart)
}

// AddItem adds quantity of a product, merging with an existing line. The line
// is capped at models.MaxLineQuantity.
func (s *CartService) AddItem(ctx context.Context, id string, productID int64, quantity int) (*models.CartSummary, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity = min(cart.Lines[i].Quantity+quantity, models.MaxLineQuantity)
			merged = true
			break
		}
	}
	if !merged {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return nil, ErrInvalidProduct
		}
		cart.Lines = append(cart.Lines, models.Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  min(quantity, models.MaxLineQuantity),
		})
	}
	return s.save(ctx, cart)
}

// SetQuantity changes a line's quantity. Below 1 removes the line; above the
// cap is clamped.
func (s *CartService) SetQuantity(ctx context.Context, id string, productID int64, quantity int) (*models.CartSummary, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, id, productID)
	}
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	i := lineIndex(cart.Lines, productID)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	cart.Lines[i].Quantity = min(quantity, models.MaxLineQuantity)
	return s.save(ctx, cart)
}

// RemoveItem drops a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, id string, productID int64) (*models.CartSummary, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	i := lineIndex(cart.Lines, productID)
	if i < 0 {
		return nil, ErrLineNotFound
	}
	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	return s.save(ctx, cart)
}

// ApplyCoupon validates code against the cart and attaches it, replacing any
// previous promotion. A rejected code leaves the cart unchanged.
func (s *CartService) ApplyCoupon(ctx context.Context, id, code string) (*models.CartSummary, error) {
	code = discount.NormalizeCode(code)
	if code == "" {
		return nil, ErrEmptyCouponCode
	}
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.evaluateCoupon(ctx, cart.CustomerID, code, models.Subtotal(cart.Lines)); err != nil {
		s.logger.Info("coupon rejected",
			"cart_id", cart.ID,
			"coupon", code,
			"reason", discount.ReasonOf(err),
		)
		return nil, err
	}

	cart.Promotion = &models.AppliedPromotion{Code: code, AppliedAt: s.now().UTC()}
	s.logger.Info("coupon applied", "cart_id", cart.ID, "coupon", code)
	return s.save(ctx, cart)
}

// RemoveCoupon clears the applied promotion
func (s *CartService) RemoveCoupon(ctx context.Context, id string) (*models.CartSummary, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cart.Promotion = nil
	return s.save(ctx, cart)
}

// Checkout places an order from the cart and deletes the cart. An applied code
// that stopped qualifying is dropped, matching the cart summary; it is neither
// discounted nor redeemed.
func (s *CartService) Checkout(ctx context.Context, id string, method models.PaymentMethod) (*models.Order, error) {
	cart, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	code := ""
	if cart.Promotion != nil {
		code = cart.Promotion.Code
	}
	order, err := s.orders.placeOrder(ctx, cart.CustomerID, code, method, cart.Lines, true)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, cart.ID); err != nil {
		s.logger.Warn("failed to delete checked out cart", "cart_id", cart.ID, "error", err)
	}
	return order, nil
}

func (s *CartService) load(ctx context.Context, id string) (*models.Cart, error) {
	cart, err := s.carts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) (*models.CartSummary, error) {
	cart.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, *cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.summarize(ctx, *cart)
}

// summarize prices the cart. The applied code is validated again so a code
// that stopped qualifying (cart shrank, coupon expired or ran out) is left out
// of the quote and reported.
func (s *CartService) summarize(ctx context.Context, cart models.Cart) (*models.CartSummary, error) {
	subtotal := models.Subtotal(cart.Lines)
	summary := &models.CartSummary{Cart: cart}

	var applied *discount.Discount
	if cart.Promotion != nil {
		d, err := s.orders.reviewCoupon(ctx, cart.CustomerID, cart.Promotion.Code, subtotal)
		switch {
		case err == nil:
			applied = d
		case discount.IsRejection(err):
			summary.PromotionDropped = discount.ReasonOf(err)
			summary.Message = summary.PromotionDropped.Message()
		default:
			return nil, err
		}
	}

	summary.Pricing = s.orders.pricing.Quote(subtotal, applied)
	return summary, nil
}

func lineIndex(lines []models.Line, productID int64) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
