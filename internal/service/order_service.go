package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
	"github.com/heritage-handlooms/checkout-api/internal/models"
	"github.com/heritage-handlooms/checkout-api/internal/repository"
)

var (
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d", models.MaxLineQuantity)
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidPayment  = errors.New("payment method must be one of upi, card, netbanking, cod")
	ErrOrderNotFound   = errors.New("order not found")
)

const orderStatusConfirmed = "confirmed"

// CouponValidator validates codes against the registry and commits redemptions.
// Validate records the outcome, Peek does not.
type CouponValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time, hasPriorOrders bool) (discount.Coupon, discount.Discount, error)
	Peek(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time, hasPriorOrders bool) (discount.Coupon, discount.Discount, error)
	Commit(ctx context.Context, code string, now time.Time) (discount.Coupon, error)
}

// OrderRecorder observes placed orders
type OrderRecorder interface {
	OrderPlaced(paymentMethod string)
}

// ProductRepository interface for product data access
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

// PricedOrder is a set of resolved lines with their pricing
type PricedOrder struct {
	Lines   []models.Line  `json:"lines"`
	Pricing discount.Quote `json:"pricing"`
}

// OrderService handles order business logic
type OrderService struct {
	productRepo ProductRepository
	orderRepo   repository.OrderRepository
	coupons     CouponValidator
	pricing     discount.Pricing
	recorder    OrderRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. A nil coupon validator rejects every code.
func NewOrderService(productRepo ProductRepository, orderRepo repository.OrderRepository, coupons CouponValidator, pricing discount.Pricing, logger *slog.Logger) *OrderService {
	return &OrderService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		coupons:     coupons,
		pricing:     pricing,
		logger:      logger,
		now:         time.Now,
	}
}

// WithRecorder attaches an order observer
func (s *OrderService) WithRecorder(r OrderRecorder) *OrderService {
	s.recorder = r
	return s
}

// Quote prices an order request without placing it or touching the coupon
func (s *OrderService) Quote(ctx context.Context, req models.OrderRequest) (*PricedOrder, error) {
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, req.CustomerID, req.CouponCode, lines)
}

// CreateOrder prices the request, commits the coupon redemption and stores the order
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	lines, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	return s.placeOrder(ctx, req.CustomerID, req.CouponCode, req.PaymentMethod, lines, false)
}

// GetOrder returns a placed order
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// resolveLines validates items and prices them from the catalog. Repeated
// products are merged into one line.
func (s *OrderService) resolveLines(ctx context.Context, items []models.OrderItem) ([]models.Line, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	lines := make([]models.Line, 0, len(items))
	index := make(map[int64]int)

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		productID, err := strconv.ParseInt(strings.TrimSpace(item.ProductID), 10, 64)
		if err != nil {
			return nil, ErrInvalidProduct
		}

		if i, exists := index[productID]; exists {
			lines[i].Quantity += item.Quantity
			if lines[i].Quantity > models.MaxLineQuantity {
				return nil, ErrInvalidQuantity
			}
			continue
		}
		if item.Quantity > models.MaxLineQuantity {
			return nil, ErrInvalidQuantity
		}

		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, ErrInvalidProduct
		}

		index[productID] = len(lines)
		lines = append(lines, models.Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// hasPriorOrders reports whether the customer already placed an order.
// Anonymous shoppers count as first-time customers.
func (s *OrderService) hasPriorOrders(ctx context.Context, customerID string) (bool, error) {
	if customerID == "" {
		return false, nil
	}
	n, err := s.orderRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("count orders: %w", err)
	}
	return n > 0, nil
}

// ValidateCoupon checks code against the subtotal for the customer without
// redeeming it
func (s *OrderService) ValidateCoupon(ctx context.Context, customerID, code string, subtotal decimal.Decimal) (discount.Coupon, discount.Discount, error) {
	return s.checkCoupon(ctx, customerID, code, subtotal, true)
}

func (s *OrderService) checkCoupon(ctx context.Context, customerID, code string, subtotal decimal.Decimal, record bool) (discount.Coupon, discount.Discount, error) {
	if strings.TrimSpace(code) == "" {
		return discount.Coupon{}, discount.Discount{}, ErrEmptyCouponCode
	}
	if s.coupons == nil {
		return discount.Coupon{}, discount.Discount{}, discount.ErrCodeNotFound
	}

	prior, err := s.hasPriorOrders(ctx, customerID)
	if err != nil {
		return discount.Coupon{}, discount.Discount{}, err
	}
	if record {
		return s.coupons.Validate(ctx, code, subtotal, s.now(), prior)
	}
	return s.coupons.Peek(ctx, code, subtotal, s.now(), prior)
}

// evaluateCoupon is ValidateCoupon for pricing: an empty code yields no discount
func (s *OrderService) evaluateCoupon(ctx context.Context, customerID, code string, subtotal decimal.Decimal) (*discount.Discount, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	_, d, err := s.ValidateCoupon(ctx, customerID, code, subtotal)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// reviewCoupon re-prices a code already applied to a cart without recording a
// validation
func (s *OrderService) reviewCoupon(ctx context.Context, customerID, code string, subtotal decimal.Decimal) (*discount.Discount, error) {
	_, d, err := s.checkCoupon(ctx, customerID, code, subtotal, false)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *OrderService) price(ctx context.Context, customerID, code string, lines []models.Line) (*PricedOrder, error) {
	subtotal := models.Subtotal(lines)
	applied, err := s.evaluateCoupon(ctx, customerID, code, subtotal)
	if err != nil {
		return nil, err
	}
	return &PricedOrder{Lines: lines, Pricing: s.pricing.Quote(subtotal, applied)}, nil
}

// placeOrder validates, commits the redemption and saves. The redemption is
// committed only after every other check has passed. With dropRejected a code
// that no longer qualifies is left off the order instead of failing it, the way
// a cart summary leaves it out of the quote.
func (s *OrderService) placeOrder(ctx context.Context, customerID, code string, method models.PaymentMethod, lines []models.Line, dropRejected bool) (*models.Order, error) {
	if !method.Valid() {
		return nil, ErrInvalidPayment
	}

	priced, err := s.price(ctx, customerID, code, lines)
	if dropRejected && discount.IsRejection(err) {
		s.logger.Info("applied coupon dropped at checkout",
			"customer_id", customerID,
			"coupon", discount.NormalizeCode(code),
			"reason", discount.ReasonOf(err),
		)
		priced, err = s.price(ctx, customerID, "", lines)
	}
	if err != nil {
		return nil, err
	}

	if priced.Pricing.CouponCode != "" {
		redeemed, err := s.coupons.Commit(ctx, priced.Pricing.CouponCode, s.now())
		if err != nil {
			return nil, err
		}
		s.logger.Info("coupon redemption committed",
			"coupon", redeemed.Code,
			"used_count", redeemed.UsedCount,
		)
	}

	order := models.Order{
		ID:            generateOrderID(),
		CustomerID:    customerID,
		Lines:         priced.Lines,
		CouponCode:    priced.Pricing.CouponCode,
		Pricing:       priced.Pricing,
		PaymentMethod: method,
		Status:        orderStatusConfirmed,
		PaymentStatus: method.PaymentStatus(),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	if s.recorder != nil {
		s.recorder.OrderPlaced(string(method))
	}
	s.logger.Info("order created",
		"order_id", order.ID,
		"customer_id", customerID,
		"coupon", order.CouponCode,
		"total", order.Pricing.Total.String(),
		"payment_method", method,
	)
	return &order, nil
}

// generateOrderID generates a unique order ID using UUID
func generateOrderID() string {
	return uuid.New().String()
}
