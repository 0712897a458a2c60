package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// PaymentMethod is how the shopper pays. Only the choice is recorded.
type PaymentMethod string

const (
	PaymentUPI        PaymentMethod = "upi"
	PaymentCard       PaymentMethod = "card"
	PaymentNetbanking PaymentMethod = "netbanking"
	PaymentCOD        PaymentMethod = "cod"
)

// Valid reports whether m is an accepted payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentUPI, PaymentCard, PaymentNetbanking, PaymentCOD:
		return true
	}
	return false
}

// PaymentStatus returns the status an order starts with: cash on delivery is
// collected later, everything else is settled at checkout.
func (m PaymentMethod) PaymentStatus() string {
	if m == PaymentCOD {
		return "pending"
	}
	return "completed"
}

// OrderRequest represents an incoming order or quote request
type OrderRequest struct {
	CustomerID    string        `json:"customerId,omitempty"`
	CouponCode    string        `json:"couponCode,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	Items         []OrderItem   `json:"items"`
}

// OrderItem represents a single item in an order request
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Line is a priced product line of a cart or order
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Total returns unit price times quantity
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the line totals
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Order represents a placed order
type Order struct {
	ID            string         `json:"id"`
	CustomerID    string         `json:"customerId,omitempty"`
	Lines         []Line         `json:"lines"`
	CouponCode    string         `json:"couponCode,omitempty"`
	Pricing       discount.Quote `json:"pricing"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"paymentStatus"`
	CreatedAt     time.Time      `json:"createdAt"`
}
